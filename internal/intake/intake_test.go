package intake

import (
	"io"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeranker/resume-uploader/internal/models"
)

func newFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for p, body := range files {
		if dir := p[:strings.LastIndex(p, "/")]; dir != "" {
			require.NoError(t, fs.MkdirAll(dir, 0o755))
		}
		require.NoError(t, util.WriteFile(fs, p, []byte(body), 0o644))
	}
	return fs
}

func names(payloads []models.Payload) []string {
	out := make([]string, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, p.Name())
	}
	return out
}

func TestSelection_ExplicitPathsKeepOrder(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/in/b.pdf":  "bbbb",
		"/in/a.docx": "aa",
	})
	in := New(fs, DefaultFilter())

	res, err := in.Collect(Selection{Paths: []string{"/in/b.pdf", "/in/a.docx"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.pdf", "a.docx"}, names(res.Payloads))
	assert.Empty(t, res.Rejected)
	assert.Equal(t, int64(4), res.Payloads[0].Size())
}

func TestSelection_Glob(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/in/c.pdf":    "c",
		"/in/a.pdf":    "a",
		"/in/notes.md": "n",
	})
	in := New(fs, DefaultFilter())

	res, err := in.Collect(Selection{Paths: []string{"/in/*.pdf"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf", "c.pdf"}, names(res.Payloads))
}

func TestSelection_GlobWithoutMatchesIsRejected(t *testing.T) {
	fs := newFS(t, map[string]string{"/in/a.pdf": "a"})
	in := New(fs, DefaultFilter())

	res, err := in.Collect(Selection{Paths: []string{"/in/*.rtf"}})
	require.NoError(t, err)

	assert.Empty(t, res.Payloads)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, ReasonNoMatch, res.Rejected[0].Reason)
}

func TestSelection_MalformedGlobIsError(t *testing.T) {
	in := New(memfs.New(), DefaultFilter())

	_, err := in.Collect(Selection{Paths: []string{"/in/[.pdf"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestSelection_DuplicatesCollapse(t *testing.T) {
	fs := newFS(t, map[string]string{"/in/a.pdf": "a"})
	in := New(fs, DefaultFilter())

	res, err := in.Collect(
		Selection{Paths: []string{"/in/a.pdf", "/in/./a.pdf"}},
		Selection{Paths: []string{"/in/*.pdf"}},
	)
	require.NoError(t, err)

	assert.Len(t, res.Payloads, 1)
}

func TestSelection_Rejections(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/in/photo.png":  "png",
		"/in/sub/x.pdf":  "x",
		"/in/resume.PDF": "upper-case ext is fine",
	})
	in := New(fs, DefaultFilter())

	res, err := in.Collect(Selection{Paths: []string{
		"/in/photo.png",
		"/in/sub",
		"/in/missing.pdf",
		"/in/resume.PDF",
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"resume.PDF"}, names(res.Payloads))
	reasons := map[string]string{}
	for _, r := range res.Rejected {
		reasons[r.Path] = r.Reason
	}
	assert.Equal(t, map[string]string{
		"/in/photo.png":   ReasonUnsupportedType,
		"/in/sub":         ReasonDirectory,
		"/in/missing.pdf": ReasonNotFound,
	}, reasons)
}

func TestSelection_MaxSize(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/in/small.pdf": "12345",
		"/in/large.pdf": "1234567890",
	})
	filter := DefaultFilter()
	filter.MaxSize = 5
	in := New(fs, filter)

	res, err := in.Collect(Selection{Paths: []string{"/in/small.pdf", "/in/large.pdf"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"small.pdf"}, names(res.Payloads))
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, ReasonTooLarge, res.Rejected[0].Reason)
}

func TestCollect_EmptyInputIsNoop(t *testing.T) {
	in := New(memfs.New(), DefaultFilter())

	res, err := in.Collect()
	require.NoError(t, err)
	assert.Empty(t, res.Payloads)
	assert.Empty(t, res.Rejected)

	res, err = in.Collect(Selection{}, Drop{})
	require.NoError(t, err)
	assert.Empty(t, res.Payloads)
}

func TestDrop_Directory(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/drop/a.pdf":        "a",
		"/drop/b.txt":        "b",
		"/drop/.hidden.pdf":  "h",
		"/drop/nested/c.rtf": "c",
		"/drop/.git/d.pdf":   "d",
	})
	in := New(fs, DefaultFilter())

	res, err := in.Collect(Drop{Roots: []string{"/drop"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.pdf", "b.txt"}, names(res.Payloads))

	res, err = in.Collect(Drop{Roots: []string{"/drop"}, Recursive: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.pdf", "b.txt", "c.rtf"}, names(res.Payloads))
}

func TestDrop_MixedFilesAndDirectories(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/drop/a.pdf": "a",
		"/loose.doc":  "l",
	})
	in := New(fs, DefaultFilter())

	res, err := in.Collect(Drop{Roots: []string{"/loose.doc", "/drop"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"loose.doc", "a.pdf"}, names(res.Payloads))
}

func TestFilePayload_Open(t *testing.T) {
	fs := newFS(t, map[string]string{"/in/a.pdf": "%PDF-1.4"})

	p, err := NewFilePayload(fs, "/in/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", p.Name())
	assert.Equal(t, "/in/a.pdf", p.Path())

	rc, err := p.Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))

	_, err = NewFilePayload(fs, "/in")
	assert.Error(t, err)
	_, err = NewFilePayload(fs, "/in/none.pdf")
	assert.Error(t, err)
}

func TestParseExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf", ".docx", ".txt"}, ParseExtensions(" .PDF, docx,,.txt "))
	assert.Empty(t, ParseExtensions(""))
}

func TestFilter_NoExtensionsAcceptsAll(t *testing.T) {
	f := Filter{}
	assert.Equal(t, "", f.check("anything.bin", 10))
}
