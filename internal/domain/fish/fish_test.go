package fish

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"adventure-server-go/internal/core/providers/genai"
	"adventure-server-go/internal/domain/geo"
	platformerrors "adventure-server-go/internal/platform/errors"
)

type fakeModel struct {
	out    string
	err    error
	prompt string
}

func (f *fakeModel) Complete(_ context.Context, req genai.Request) (string, error) {
	f.prompt = req.Prompt
	return f.out, f.err
}

var dc = geo.Coordinate{Latitude: 38.8951, Longitude: -77.0364}

func TestParseListing(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		message string
	}{
		{"numbered", "1. Bass\n2. Trout\n3. Perch", []string{"Bass", "Trout", "Perch"}, ""},
		{"preamble", "Top 5 fish in your area:\n1. Largemouth Bass\n2. Channel Catfish\n\n3. Bluegill", []string{"Largemouth Bass", "Channel Catfish", "Bluegill"}, ""},
		{"no data", "No fish data available for your area.", []string{}, NoDataMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseListing(tt.in)
			if err != nil {
				t.Fatalf("ParseListing error: %v", err)
			}
			if !reflect.DeepEqual(got.Fish, tt.want) || got.Message != tt.message {
				t.Fatalf("ParseListing = %+v, want %v %q", got, tt.want, tt.message)
			}
		})
	}
}

func TestParseListingUnparsable(t *testing.T) {
	raw := "Bass, trout and perch are common here"
	_, err := ParseListing(raw)
	if !platformerrors.IsKind(err, platformerrors.KindParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if platformerrors.DetailsOf(err) != raw || platformerrors.Message(err) != UnparsedNote {
		t.Fatalf("unexpected error payload: %v", err)
	}

	got := Unparsed(raw)
	if got.RawOutput != raw || got.Message != UnparsedNote {
		t.Fatalf("unexpected unparsed listing: %+v", got)
	}
}

func TestServiceList(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    []string
		message string
	}{
		{"structured", `{"fish": ["Striped Bass", " Blue Catfish ", ""]}`, []string{"Striped Bass", "Blue Catfish"}, ""},
		{"structured empty", `{"fish": []}`, []string{}, NoDataMessage},
		{"prose fallback", "1. Bass\n2. Trout\n3. Perch", []string{"Bass", "Trout", "Perch"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{out: tt.out}
			got, err := NewService(model, nil).List(context.Background(), dc)
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if !reflect.DeepEqual(got.Fish, tt.want) || got.Message != tt.message {
				t.Fatalf("List = %+v, want %v %q", got, tt.want, tt.message)
			}
			if !strings.Contains(model.prompt, "-77.0364") || !strings.Contains(model.prompt, "38.8951") {
				t.Fatalf("prompt missing coordinate: %s", model.prompt)
			}
		})
	}
}

func TestServiceListErrors(t *testing.T) {
	svc := NewService(&fakeModel{out: "  "}, nil)
	_, err := svc.List(context.Background(), dc)
	if err == nil || platformerrors.Message(err) != "Fish lookup produced no output" {
		t.Fatalf("expected empty output error, got %v", err)
	}

	svc = NewService(&fakeModel{out: "Many fish live here."}, nil)
	if _, err := svc.List(context.Background(), dc); !platformerrors.IsKind(err, platformerrors.KindParse) {
		t.Fatalf("expected parse error, got %v", err)
	}

	model := &fakeModel{}
	svc = NewService(model, nil)
	if _, err := svc.List(context.Background(), geo.Coordinate{Latitude: 100}); !platformerrors.IsKind(err, platformerrors.KindInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if model.prompt != "" {
		t.Fatalf("model must not be called for invalid coordinates")
	}
}
