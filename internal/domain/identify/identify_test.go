package identify

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adventure-server-go/internal/core/providers/genai"
	"adventure-server-go/internal/domain/image"
	"adventure-server-go/internal/platform/config"
	platformerrors "adventure-server-go/internal/platform/errors"
)

type fakeModel struct {
	out string
	err error
	req genai.Request
}

func (f *fakeModel) Complete(_ context.Context, req genai.Request) (string, error) {
	f.req = req
	return f.out, f.err
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "robin.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func newTestIdentifier(t *testing.T, model Completer) *Identifier {
	t.Helper()
	pipeline, err := image.NewPipeline(image.Options{Security: &config.SecurityConfig{
		MaxFileSize:    1 << 20,
		MaxPixels:      1 << 20,
		MaxWidth:       1024,
		MaxHeight:      1024,
		AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif"},
	}})
	if err != nil {
		t.Fatalf("NewPipeline error: %v", err)
	}
	return NewIdentifier(model, pipeline, nil)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr string
	}{
		{"animal", KindAnimal, ""},
		{"Bird", KindBird, ""},
		{" flora ", KindFlora, ""},
		{"", "", "Identification type (id_type) missing"},
		{"fungus", "", "Invalid identification type: fungus"},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr != "" {
			if !platformerrors.IsKind(err, platformerrors.KindInput) || platformerrors.Message(err) != tt.wantErr {
				t.Errorf("ParseKind(%q) error = %v, want %q", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestKindPrompt(t *testing.T) {
	for kind, want := range map[Kind]string{
		KindAnimal: "zoologist",
		KindBird:   "ornithologist",
		KindFlora:  "botanist",
	} {
		prompt := kind.Prompt()
		for _, s := range []string{want, "common_name", "scientific_name", "places_found", "fun_fact"} {
			if !strings.Contains(prompt, s) {
				t.Errorf("%s prompt missing %q", kind, s)
			}
		}
	}
}

func TestParseResult(t *testing.T) {
	res, err := ParseResult("```json\n{\"common_name\": \"American Robin\", \"scientific_name\": \"Turdus migratorius\", \"places_found\": \"North America\", \"fun_fact\": \"Sings early.\"}\n```")
	if err != nil {
		t.Fatalf("ParseResult error: %v", err)
	}
	if res.CommonName != "American Robin" || res.ScientificName != "Turdus migratorius" {
		t.Fatalf("unexpected result: %+v", res)
	}

	_, err = ParseResult("I think this is a robin.")
	if !platformerrors.IsKind(err, platformerrors.KindParse) || platformerrors.Message(err) != "Identification output was not valid JSON" {
		t.Fatalf("expected parse error, got %v", err)
	}
	if platformerrors.DetailsOf(err) != "I think this is a robin." {
		t.Fatalf("raw output not carried in details: %v", platformerrors.DetailsOf(err))
	}

	_, err = ParseResult(`{"error": "no bird visible"}`)
	if err == nil || !strings.Contains(platformerrors.Message(err), "no bird visible") {
		t.Fatalf("expected error field to surface, got %v", err)
	}
	if platformerrors.HTTPStatus(err) != 500 {
		t.Fatalf("error field should map to 500, got %d", platformerrors.HTTPStatus(err))
	}
}

func TestIdentifierIdentify(t *testing.T) {
	model := &fakeModel{out: `{"common_name": "American Robin", "scientific_name": "Turdus migratorius", "places_found": "North America", "fun_fact": "Sings early."}`}
	id := newTestIdentifier(t, model)

	res, err := id.Identify(context.Background(), KindBird, writePNG(t))
	if err != nil {
		t.Fatalf("Identify error: %v", err)
	}
	if res.CommonName != "American Robin" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasPrefix(model.req.ImageURL, "data:image/png;base64,") {
		t.Fatalf("photo not sent as data URI: %.40s", model.req.ImageURL)
	}
	if !model.req.JSON || !strings.Contains(model.req.Prompt, "ornithologist") {
		t.Fatalf("unexpected request: %+v", model.req.Prompt)
	}
}

func TestIdentifierRejectsNonImage(t *testing.T) {
	model := &fakeModel{}
	id := newTestIdentifier(t, model)

	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := id.Identify(context.Background(), KindAnimal, path); !platformerrors.IsKind(err, platformerrors.KindInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if model.req.Prompt != "" {
		t.Fatalf("model must not be called for invalid images")
	}
}
