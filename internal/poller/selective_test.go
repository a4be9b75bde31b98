package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/namba3/patrol/internal/domain"
)

func TestMergeTagsErrorsWithMode(t *testing.T) {
	in := make(chan Result, 1)
	in <- Result{Err: assertionError{"boom"}}
	close(in)

	out := make(chan Result, 1)
	merge(out, in, string(domain.ModeFull))
	close(out)

	r := <-out
	var tagged *TaggedError
	assert.ErrorAs(t, r.Err, &tagged)
	assert.Equal(t, string(domain.ModeFull), tagged.Mode)
}

func TestMergePassesThroughSuccessUntouched(t *testing.T) {
	in := make(chan Result, 1)
	in <- Result{Id: mustTestID(t, "a"), Text: "ok"}
	close(in)

	out := make(chan Result, 1)
	merge(out, in, string(domain.ModeSimple))
	close(out)

	r := <-out
	assert.NoError(t, r.Err)
	assert.Equal(t, "ok", r.Text)
}

func mustTestID(t *testing.T, s string) domain.Id {
	t.Helper()
	id, err := domain.ParseID(s)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

type assertionError struct{ msg string }

func (e assertionError) Error() string { return e.msg }
