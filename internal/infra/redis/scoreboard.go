package redis

import (
	"context"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
	"trivia-chat-service/internal/domain"
)

const (
	totalsKey  = "trivia:scores:totals"
	namesKey   = "trivia:scores:names"
	reachedKey = "trivia:scores:reached"
	seqKey     = "trivia:scores:seq"
)

// creditScript increments a user's total and records the order in which the
// new total was reached, atomically.
var creditScript = redis.NewScript(`
local total = redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
local seq = redis.call('INCR', KEYS[4])
redis.call('HSET', KEYS[3], ARGV[1], seq)
if ARGV[2] ~= '' then
  redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
end
return total
`)

// ScoreBoard keeps global totals in Redis hashes so every instance shares them.
//
//	HSET trivia:scores:totals  {userID} {total}
//	HSET trivia:scores:names   {userID} {display name}
//	HSET trivia:scores:reached {userID} {sequence of last credit}
type ScoreBoard struct {
	client *redis.Client
}

func NewScoreBoard(client *redis.Client) *ScoreBoard {
	return &ScoreBoard{client: client}
}

func (b *ScoreBoard) Credit(ctx context.Context, userID, userName string) (int, error) {
	keys := []string{totalsKey, namesKey, reachedKey, seqKey}
	return creditScript.Run(ctx, b.client, keys, userID, userName).Int()
}

func (b *ScoreBoard) TotalFor(ctx context.Context, userID string) (int, error) {
	total, err := b.client.HGet(ctx, totalsKey, userID).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return total, err
}

// TopN orders by total descending; ties go to whoever reached the total first.
func (b *ScoreBoard) TopN(ctx context.Context, n int) ([]domain.ScoreEntry, error) {
	pipe := b.client.Pipeline()
	totalsCmd := pipe.HGetAll(ctx, totalsKey)
	namesCmd := pipe.HGetAll(ctx, namesKey)
	reachedCmd := pipe.HGetAll(ctx, reachedKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	names := namesCmd.Val()
	reached := reachedCmd.Val()
	type ranked struct {
		entry domain.ScoreEntry
		seq   int64
	}
	rows := make([]ranked, 0, len(totalsCmd.Val()))
	for userID, raw := range totalsCmd.Val() {
		total, err := strconv.Atoi(raw)
		if err != nil || total <= 0 {
			continue
		}
		seq, _ := strconv.ParseInt(reached[userID], 10, 64)
		rows = append(rows, ranked{
			entry: domain.ScoreEntry{UserID: userID, UserName: names[userID], Total: total},
			seq:   seq,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].entry.Total != rows[j].entry.Total {
			return rows[i].entry.Total > rows[j].entry.Total
		}
		return rows[i].seq < rows[j].seq
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	out := make([]domain.ScoreEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out, nil
}

func (b *ScoreBoard) Reset(ctx context.Context) error {
	return b.client.Del(ctx, totalsKey, namesKey, reachedKey, seqKey).Err()
}
