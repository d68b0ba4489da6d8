// Package voices holds the static catalog of provider voices and resolves
// a requested (gender, style, language) triple to a concrete voice name.
package voices

import (
	"fmt"

	"github.com/autovid/voice-generator/internal/core"
)

// Voice is one catalog entry. The provider voice name is the language code
// joined with Name, e.g. "vi-VN-Standard-C".
type Voice struct {
	Name   string
	Gender string
	Style  string
}

var catalog = []Voice{
	{Name: "Standard-B", Gender: "MALE", Style: "Standard"},
	{Name: "Standard-C", Gender: "FEMALE", Style: "Standard"},
	{Name: "Chirp3-HD-Laomedeia", Gender: "FEMALE", Style: "Expressive"},
	{Name: "Chirp3-HD-Algenib", Gender: "MALE", Style: "Expressive"},
	{Name: "Chirp3-HD-Aoede", Gender: "FEMALE", Style: "Professional"},
	{Name: "Chirp3-HD-Enceladus", Gender: "MALE", Style: "Professional"},
}

// Resolve returns the fully qualified provider voice name for the
// requested gender and style. A miss is a caller configuration error, not
// a transient failure.
func Resolve(gender, style, language string) (string, error) {
	for _, voice := range catalog {
		if voice.Gender == gender && voice.Style == style {
			return language + "-" + voice.Name, nil
		}
	}

	return "", fmt.Errorf("%w: gender=%q style=%q", core.ErrVoiceNotFound, gender, style)
}

// Listing is one catalog entry formatted for the voices API.
type Listing struct {
	Name     string   `json:"name"`
	Language string   `json:"language"`
	Gender   string   `json:"gender"`
	Styles   []string `json:"styles"`
}

// List returns the whole catalog qualified with the given language code.
func List(language string) []Listing {
	listings := make([]Listing, 0, len(catalog))

	for _, voice := range catalog {
		listings = append(listings, Listing{
			Name:     language + "-" + voice.Name,
			Language: language,
			Gender:   voice.Gender,
			Styles:   []string{voice.Style},
		})
	}

	return listings
}
