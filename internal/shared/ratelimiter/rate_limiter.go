// Package ratelimiter tracks per-provider call quotas.
package ratelimiter

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultWindow は外部APIのレートリミットで一般的な集計期間（1分）です。
const DefaultWindow = time.Minute

// Quota はひとつのプロバイダーに対する呼び出し枠を管理します。
//
// 発行済み呼び出しの時刻をウィンドウ分だけ保持するため、任意の連続した
// window 期間内の呼び出し数が limit を超えることはありません。
// 呼び出しは発行時点で計上され、応答を待たずにタイムアウトした呼び出しも枠を消費します。
type Quota struct {
	mu       sync.Mutex
	provider string
	limit    int           // window あたりの上限
	window   time.Duration // 集計期間
	issued   []time.Time   // window 内に発行した呼び出し時刻（昇順）
	now      func() time.Time
}

// Option は Quota の生成オプションです。
type Option func(*Quota)

// WithClock は現在時刻の取得関数を差し替えます。テストで時間を進めるために使います。
func WithClock(now func() time.Time) Option {
	return func(q *Quota) { q.now = now }
}

// NewQuota は新しい Quota を生成します。limit が0以下の場合は一切の呼び出しを許可しません。
func NewQuota(provider string, limit int, window time.Duration, opts ...Option) *Quota {
	if window <= 0 {
		window = DefaultWindow
	}
	q := &Quota{
		provider: provider,
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// TryAcquire は枠が残っていれば呼び出しを1件計上して true を返します。
// 枠がなければ待機せずに false を返します。
func (q *Quota) TryAcquire() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.evict(now)
	if len(q.issued) >= q.limit {
		slog.Debug("quota exhausted", "provider", q.provider, "limit", q.limit, "window", q.window)
		return false
	}
	q.issued = append(q.issued, now)
	return true
}

// Snapshot は現在の使用状況を返します。
func (q *Quota) Snapshot() Usage {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.evict(now)
	u := Usage{
		Provider: q.provider,
		Used:     len(q.issued),
		Limit:    q.limit,
		Window:   q.window,
	}
	if len(q.issued) > 0 {
		u.WindowStart = q.issued[0]
		u.ResetsAt = q.issued[0].Add(q.window)
	}
	return u
}

// evict はウィンドウ外になった発行時刻を取り除きます。呼び出し元でロック済みであること。
func (q *Quota) evict(now time.Time) {
	cutoff := now.Add(-q.window)
	i := 0
	for i < len(q.issued) && !q.issued[i].After(cutoff) {
		i++
	}
	if i > 0 {
		q.issued = append(q.issued[:0], q.issued[i:]...)
	}
}

// Usage は Quota の使用状況のスナップショットです。
type Usage struct {
	Provider    string        `json:"provider"`
	Used        int           `json:"used"`
	Limit       int           `json:"limit"`
	Window      time.Duration `json:"window"`
	WindowStart time.Time     `json:"window_start,omitempty"`
	ResetsAt    time.Time     `json:"resets_at,omitempty"` // 最古の呼び出しが枠から外れる時刻
}

// Book はプロバイダー名ごとの Quota を保持します。
// プロセス全体のシングルトンではなく、コーディネーター生成時に明示的に渡します。
type Book struct {
	quotas map[string]*Quota
}

// NewBook は与えられた Quota から Book を生成します。
func NewBook(quotas ...*Quota) *Book {
	b := &Book{quotas: make(map[string]*Quota, len(quotas))}
	for _, q := range quotas {
		b.quotas[q.provider] = q
	}
	return b
}

// Acquire は provider の枠を1件消費します。未登録のプロバイダーは常に false です。
func (b *Book) Acquire(provider string) bool {
	q, ok := b.quotas[provider]
	if !ok {
		return false
	}
	return q.TryAcquire()
}

// Usage は全プロバイダーの使用状況を名前順で返します。
func (b *Book) Usage() []Usage {
	out := make([]Usage, 0, len(b.quotas))
	for _, q := range b.quotas {
		out = append(out, q.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
