package critic

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/markup"
)

func TestPhraseClassifier(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Verdict
	}{
		{"explicit no", "NO, the content does not fits properly within the layout.", Unfit},
		{"lowercase no with phrase", "no - nothing fits properly here", Unfit},
		{"yes", "YES, everything fits properly.", Fit},
		{"negative without phrase", "NO, there is severe overflow everywhere.", Fit},
		{"phrase without negative", "It fits properly, great layout.", Fit},
		// The phrase is an exact echo of the prompt wording; a restyled
		// phrase does not count.
		{"uppercased phrase", "NO - the content FITS PROPERLY check failed.", Fit},
		{"title-cased phrase", "No, nothing Fits Properly on this page.", Fit},
		{"empty", "", Fit},
	}
	var c PhraseClassifier
	for _, tt := range tests {
		if got := c.Classify(tt.response); got != tt.want {
			t.Errorf("%s: Classify(%q) = %v, want %v", tt.name, tt.response, got, tt.want)
		}
	}
}

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Verdict
	}{
		{"excellent", "Excellent slide, clear hierarchy.", Fit},
		{"good", "Good layout overall.", Fit},
		{"poor", "The layout is POOR.", Unfit},
		{"fair", "I would rate this fair.", Unfit},
		{"overflow", "Text overflows the right margin.", Unfit},
		{"cut-off", "The last bullet is cut-off.", Unfit},
		{"too small", "The axis labels are TOO SMALL to read.", Unfit},
		{"needs improvement", "This slide needs improvement.", Unfit},
		{"regenerate", "Please regenerate this slide.", Unfit},
	}
	var c KeywordClassifier
	for _, tt := range tests {
		if got := c.Classify(tt.response); got != tt.want {
			t.Errorf("%s: Classify(%q) = %v, want %v", tt.name, tt.response, got, tt.want)
		}
	}
}

func TestKeywordClassifierCustomSet(t *testing.T) {
	c := KeywordClassifier{Keywords: []string{"broken"}}
	if c.Classify("layout is poor") != Fit {
		t.Error("custom keyword set should replace the default")
	}
	if c.Classify("this is Broken") != Unfit {
		t.Error("custom keyword should match case-insensitively")
	}
}

func TestClassifierFor(t *testing.T) {
	if ClassifierFor(markup.KindPoster).Name() != "phrase" {
		t.Error("poster should use the phrase rule")
	}
	if ClassifierFor(markup.KindDeck).Name() != "keyword" {
		t.Error("deck should use the keyword rule")
	}
}

func TestInspectFitShortCircuits(t *testing.T) {
	calls := 0
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		calls++
		return "YES, the content fits properly within the layout.", nil
	})

	insp := New(client, nil, nil).Inspect(context.Background(), []byte("png"), markup.New("src", markup.KindPoster), 1)
	if insp.Verdict != Fit {
		t.Errorf("verdict = %v, want Fit", insp.Verdict)
	}
	if insp.Repair != nil {
		t.Error("Fit inspection must carry no repair")
	}
	if insp.Rationale == "" {
		t.Error("rationale must never be empty")
	}
	if calls != 1 {
		t.Errorf("completion calls = %d, want 1 (no repair call on Fit)", calls)
	}
}

func TestInspectUnfitRequestsRepair(t *testing.T) {
	var repairReq string
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		if len(req.Messages[0].Parts) > 1 {
			// Vision call.
			return "NO, nothing fits properly; the abstract overflows.", nil
		}
		repairReq = req.Messages[0].Parts[0].Text
		return "```latex\n\\documentclass{tikzposter}\nfixed\n```", nil
	})

	doc := markup.New("\\documentclass{tikzposter}\nbroken", markup.KindPoster)
	insp := New(client, nil, nil).Inspect(context.Background(), []byte("png"), doc, 1)

	if insp.Verdict != Unfit {
		t.Fatalf("verdict = %v, want Unfit", insp.Verdict)
	}
	if insp.Repair == nil {
		t.Fatal("expected a repair suggestion")
	}
	if strings.Contains(insp.Repair.Source, "```") {
		t.Error("repair markup should have fences stripped")
	}
	if insp.Repair.Kind != markup.KindPoster {
		t.Error("repair should keep the document kind")
	}
	if !strings.Contains(repairReq, "broken") || !strings.Contains(repairReq, "overflows") {
		t.Error("repair prompt should carry the source and the critique")
	}
}

func TestInspectCriticErrorIsConservative(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "", errors.New(errors.ErrCodeProvider, "quota exceeded")
	})

	insp := New(client, nil, nil).Inspect(context.Background(), []byte("png"), markup.New("src", markup.KindDeck), 2)
	if insp.Verdict != Unfit {
		t.Errorf("verdict = %v, want Unfit on critic failure", insp.Verdict)
	}
	if insp.Repair != nil {
		t.Error("failed critique must not suggest a repair")
	}
	if !strings.Contains(insp.Rationale, "quota exceeded") {
		t.Errorf("rationale = %q, want the error text", insp.Rationale)
	}
}

func TestInspectRepairFailureKeepsVerdict(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		if len(req.Messages[0].Parts) > 1 {
			return "poor layout, cramped everywhere", nil
		}
		return "", errors.New(errors.ErrCodeTimeout, "repair timed out")
	})

	insp := New(client, nil, nil).Inspect(context.Background(), []byte("png"), markup.New("src", markup.KindDeck), 1)
	if insp.Verdict != Unfit || insp.Repair != nil {
		t.Errorf("inspection = %+v, want Unfit without repair", insp)
	}
	if !strings.Contains(insp.Rationale, "poor layout") {
		t.Error("rationale should keep the critique when only the repair call failed")
	}
}

func TestInspectLogsVerdict(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "YES, the content fits properly within the layout.", nil
	})

	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	New(client, nil, logger).Inspect(context.Background(), []byte("png"), markup.New("src", markup.KindPoster), 1)
	out := buf.String()
	if !strings.Contains(out, "page inspected") || !strings.Contains(out, "verdict=fit") {
		t.Errorf("log output = %q, want the inspection verdict", out)
	}
}

func TestInspectEmptyCritique(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "   \n ", nil
	})
	insp := New(client, nil, nil).Inspect(context.Background(), []byte("png"), markup.New("src", markup.KindPoster), 1)
	if insp.Verdict != Unfit || insp.Rationale == "" {
		t.Errorf("inspection = %+v, want Unfit with rationale", insp)
	}
}

func TestPosterPromptCarriesClassifierPhrase(t *testing.T) {
	// The phrase rule keys on wording echoed from the prompt; if the prompt
	// loses the phrase, the classifier never fires.
	if !strings.Contains(inspectPrompt(markup.KindPoster, 1), "fits properly") {
		t.Error("poster prompt must contain the phrase the classifier matches")
	}
}
