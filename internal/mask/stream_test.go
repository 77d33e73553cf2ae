package mask

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader yields at most n bytes per Read to force token splits across
// chunk boundaries.
type chunkReader struct {
	r io.Reader
	n int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.n {
		p = p[:c.n]
	}
	return c.r.Read(p)
}

func TestRestoringReaderWholeStream(t *testing.T) {
	v := NewVault()
	tok := v.Register("EMAIL", "jane@corp.example")

	src := strings.NewReader("Contact " + tok + " for details")
	out, err := io.ReadAll(NewRestoringReader(src, v))
	require.NoError(t, err)
	assert.Equal(t, "Contact jane@corp.example for details", string(out))
}

func TestRestoringReaderTokenSplitAcrossChunks(t *testing.T) {
	v := NewVault()
	t1 := v.Register("EMAIL", "jane@corp.example")
	t2 := v.Register("FIRST_NAME", "Jane")

	input := "Hi " + t2 + ", mail sent to " + t1 + " just now"
	for _, size := range []int{1, 2, 3, 5, 7} {
		src := &chunkReader{r: strings.NewReader(input), n: size}
		out, err := io.ReadAll(NewRestoringReader(src, v))
		require.NoError(t, err, "chunk size %d", size)
		assert.Equal(t, "Hi Jane, mail sent to jane@corp.example just now", string(out), "chunk size %d", size)
	}
}

func TestRestoringReaderUnknownTokenPassesThrough(t *testing.T) {
	v := NewVault()
	v.Register("EMAIL", "jane@corp.example")

	src := &chunkReader{r: strings.NewReader("see <EMAIL_9> there"), n: 4}
	out, err := io.ReadAll(NewRestoringReader(src, v))
	require.NoError(t, err)
	assert.Equal(t, "see <EMAIL_9> there", string(out))
}

func TestRestoringReaderBareAngleBracket(t *testing.T) {
	v := NewVault()
	tok := v.Register("EMAIL", "a@x.com")

	src := &chunkReader{r: strings.NewReader("1 < 2 and " + tok + " end"), n: 3}
	out, err := io.ReadAll(NewRestoringReader(src, v))
	require.NoError(t, err)
	assert.Equal(t, "1 < 2 and a@x.com end", string(out))
}

func TestRestoringReaderEmptyVaultPassthrough(t *testing.T) {
	src := strings.NewReader("untouched")
	r := NewRestoringReader(src, NewVault())
	assert.Equal(t, src, r)
}
