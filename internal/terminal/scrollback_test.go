package terminal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollbackBelowCapacity(t *testing.T) {
	b := NewScrollback(16)
	_, _ = b.Write([]byte("hello "))
	_, _ = b.Write([]byte("world"))

	assert.Equal(t, "hello world", string(b.Bytes()))
	assert.Equal(t, 11, b.Len())
}

func TestScrollbackEvictsOldest(t *testing.T) {
	b := NewScrollback(8)
	_, _ = b.Write([]byte("12345"))
	_, _ = b.Write([]byte("67890"))

	assert.Equal(t, "34567890", string(b.Bytes()))

	_, _ = b.Write([]byte("ab"))
	assert.Equal(t, "567890ab", string(b.Bytes()))
}

func TestScrollbackOversizedWrite(t *testing.T) {
	b := NewScrollback(4)
	n, err := b.Write([]byte("abcdefgh"))

	assert.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "efgh", string(b.Bytes()))
}

func TestScrollbackBytesIsCopy(t *testing.T) {
	b := NewScrollback(8)
	_, _ = b.Write([]byte("abc"))

	out := b.Bytes()
	out[0] = 'z'
	assert.Equal(t, "abc", string(b.Bytes()))
}

func TestScrollbackZeroCapacityAndReset(t *testing.T) {
	empty := NewScrollback(0)
	_, _ = empty.Write([]byte("dropped"))
	assert.Zero(t, empty.Len())

	b := NewScrollback(8)
	_, _ = b.Write([]byte("abc"))
	b.Reset()
	assert.Empty(t, b.Bytes())
}

func TestScrollbackConcurrentWrites(t *testing.T) {
	b := NewScrollback(64)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = b.Write([]byte("xy"))
				_ = b.Bytes()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 64, b.Len())
}

func TestPlainTextStripsEscapes(t *testing.T) {
	colored := []byte("\x1b[1;32mok\x1b[0m done\r\n\x1b]0;title\x07$ ")
	assert.Equal(t, "ok done\r\n$ ", PlainText(colored))
}
