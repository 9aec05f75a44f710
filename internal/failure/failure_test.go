package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidInput, http.StatusBadRequest},
		{KindUpstream, http.StatusInternalServerError},
		{KindEmptyResult, http.StatusInternalServerError},
		{KindTranscode, http.StatusInternalServerError},
		{KindTranscription, http.StatusInternalServerError},
		{KindAnswer, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
		{KindSummarizationUnavailable, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrapAndKind(t *testing.T) {
	base := Wrap(KindTranscription, context.DeadlineExceeded, "deadline exceeded").WithStage("transcribing")
	err := fmt.Errorf("run: %w", base)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected errors.Is to find context.DeadlineExceeded")
	}
	if KindOf(err) != KindTranscription {
		t.Fatalf("KindOf = %s, want %s", KindOf(err), KindTranscription)
	}
	if !Is(err, KindTranscription) {
		t.Fatal("Is() = false")
	}
	if got := Detail(err); got != "transcribing: deadline exceeded" {
		t.Fatalf("Detail = %q", got)
	}
	if got := base.Error(); got != "transcribing: deadline exceeded: context deadline exceeded" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestUntypedErrors(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != KindInternal {
		t.Fatalf("KindOf = %s, want internal", KindOf(err))
	}
	if Detail(err) != "unknown error" {
		t.Fatalf("Detail leaked raw error: %q", Detail(err))
	}
	if Is(nil, KindInternal) {
		t.Fatal("Is(nil) should be false")
	}
}

func TestWithStageDoesNotMutate(t *testing.T) {
	orig := New(KindUpstream, "status 404")
	staged := orig.WithStage("fetching")
	if orig.Stage != "" {
		t.Fatalf("original stage mutated: %q", orig.Stage)
	}
	if staged.Stage != "fetching" {
		t.Fatalf("stage = %q", staged.Stage)
	}
}
