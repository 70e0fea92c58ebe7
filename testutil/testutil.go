package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/gramsearch/indexer"
	"github.com/hupe1980/gramsearch/shard"
)

// Alphabets used to generate message text. Small alphabets produce many
// repeated grams and therefore many candidate positions per query.
const (
	ASCIIAlphabet = "abcde "
	MixedAlphabet = "abあいう漢字 "
	EmojiAlphabet = "a😀😃b"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Text returns n code points drawn uniformly from alphabet.
func (r *RNG) Text(alphabet string, n int) string {
	runes := []rune(alphabet)
	var sb strings.Builder
	for range n {
		sb.WriteRune(runes[r.Intn(len(runes))])
	}
	return sb.String()
}

// Messages generates num messages spread over channels channels, with text
// of up to maxLen code points. Timestamps are unique per channel.
func (r *RNG) Messages(num, channels int, alphabet string, maxLen int) []indexer.Message {
	msgs := make([]indexer.Message, num)
	for i := range msgs {
		ch := r.Intn(channels)
		msgs[i] = indexer.Message{
			ChannelID:   fmt.Sprintf("C%04d", ch),
			ChannelName: fmt.Sprintf("channel-%d", ch),
			TS:          fmt.Sprintf("%d.%06d", 1600000000+i, r.Intn(1000000)),
			Text:        r.Text(alphabet, r.Intn(maxLen+1)),
		}
	}
	return msgs
}

// Query returns a random substring of a random message, or random text when
// the chosen message is too short.
func (r *RNG) Query(msgs []indexer.Message, alphabet string, maxLen int) string {
	n := 1 + r.Intn(maxLen)
	text := []rune(msgs[r.Intn(len(msgs))].Text)
	if len(text) < n {
		return r.Text(alphabet, n)
	}
	start := r.Intn(len(text) - n + 1)
	return string(text[start : start+n])
}

// ExactMatches returns the documents whose text contains query, numbering
// channels in order of first appearance as indexer.Builder.Add does.
func ExactMatches(msgs []indexer.Message, query string) []shard.DocID {
	numbers := make(map[string]uint32)
	var out []shard.DocID
	for _, m := range msgs {
		n, ok := numbers[m.ChannelID]
		if !ok {
			n = uint32(len(numbers) + 1)
			numbers[m.ChannelID] = n
		}
		if query == "" || !strings.Contains(m.Text, query) {
			continue
		}
		sec, micro, err := shard.ParseTimestamp(m.TS)
		if err != nil {
			panic(err)
		}
		out = append(out, shard.DocID{Channel: n, Sec: sec, Micro: micro})
	}
	SortDocIDs(out)
	return out
}

// SortDocIDs orders ids by channel, then timestamp.
func SortDocIDs(ids []shard.DocID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		if a.Sec != b.Sec {
			return a.Sec < b.Sec
		}
		return a.Micro < b.Micro
	})
}

// Diff returns the ids of want missing from got and the ids of got not in want.
func Diff(got, want []shard.DocID) (missing, extra []shard.DocID) {
	inGot := make(map[shard.DocID]bool, len(got))
	for _, d := range got {
		inGot[d] = true
	}
	inWant := make(map[shard.DocID]bool, len(want))
	for _, d := range want {
		inWant[d] = true
		if !inGot[d] {
			missing = append(missing, d)
		}
	}
	for _, d := range got {
		if !inWant[d] {
			extra = append(extra, d)
		}
	}
	return missing, extra
}
