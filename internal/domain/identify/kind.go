// Package identify names the animal, bird or plant in a photo.
package identify

import (
	"fmt"
	"strings"

	platformerrors "adventure-server-go/internal/platform/errors"
)

type Kind string

const (
	KindAnimal Kind = "animal"
	KindBird   Kind = "bird"
	KindFlora  Kind = "flora"
)

// ParseKind validates an id_type form value.
func ParseKind(v string) (Kind, error) {
	if strings.TrimSpace(v) == "" {
		return "", platformerrors.New(platformerrors.KindInput, "identify.parse_kind", "Identification type (id_type) missing")
	}
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case KindAnimal, KindBird, KindFlora:
		return k, nil
	default:
		return "", platformerrors.New(platformerrors.KindInput, "identify.parse_kind", fmt.Sprintf("Invalid identification type: %s", v))
	}
}

type subject struct {
	expert  string
	noun    string
	example string
}

var subjects = map[Kind]subject{
	KindAnimal: {
		expert: "a professional zoologist",
		noun:   "animal",
		example: `{
  "common_name": "Red Fox",
  "scientific_name": "Vulpes vulpes",
  "places_found": "North America, Europe, Asia, North Africa",
  "fun_fact": "Red foxes use the Earth's magnetic field to pounce on prey hidden under snow."
}`,
	},
	KindBird: {
		expert: "a professional ornithologist",
		noun:   "bird",
		example: `{
  "common_name": "American Robin",
  "scientific_name": "Turdus migratorius",
  "places_found": "North America",
  "fun_fact": "Robins are known for their cheerful song, often one of the first birds heard in the morning."
}`,
	},
	KindFlora: {
		expert: "a professional botanist",
		noun:   "plant",
		example: `{
  "common_name": "Eastern Redbud",
  "scientific_name": "Cercis canadensis",
  "places_found": "Eastern United States, Southern Ontario, Northern Mexico",
  "fun_fact": "Redbud flowers are edible and were eaten raw or fried by early settlers."
}`,
	},
}

// Prompt is the instruction sent alongside the photo.
func (k Kind) Prompt() string {
	s := subjects[k]
	return fmt.Sprintf(`You are %s. Identify the %s in the provided image.
Respond ONLY with a valid JSON object containing the following keys:
- "common_name": The common name of the %s.
- "scientific_name": The scientific name of the %s.
- "places_found": A comma-separated string listing common locations.
- "fun_fact": One interesting fact about the %s.

If you cannot identify a %s in the image, respond with {"error": "<short reason>"} instead.

Example JSON format:
%s

Do not include any text before or after the JSON object.`,
		s.expert, s.noun, s.noun, s.noun, s.noun, s.noun, s.example)
}
