package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty stays empty", "", ""},
		{"blank stays blank", "   ", "   "},
		{"progressiva alias", "escova progressiva", "progressiva"},
		{"balayage alias", "balayage", "mechas"},
		{"accented alias", "Hidratação Profunda", "hidratacao"},
		{"punctuation and case", "  CORTE!!! ", "corte"},
		{"stopwords removed before lookup", "quero fazer as unhas", "manicure"},
		{"fio a fio", "fio a fio sobrancelha", "sobrancelha"},
		{"spa dos pés", "spa dos pés", "pedicure"},
		{"unknown phrase is cleaned", "Massagem relaxante!", "massagem relaxante"},
		{"all stopwords fail open", "de para", "de para"},
		{"digits kept", "Luzes 3D", "mechas"},
		{"ombré", "Ombré hair", "mechas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"escova progressiva",
		"balayage",
		"hidratação profunda",
		"Massagem relaxante!",
		"de para",
		"o",
		"corte masculino na tesoura",
		"ÁÉÍÓÚ çãõ",
		"unha-em-gel",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestCanonicalTagsMapToThemselves(t *testing.T) {
	for _, tag := range serviceAliases {
		assert.Equal(t, tag, serviceAliases[tag], "canonical tag %q must be its own alias", tag)
		_, stop := stopwords[tag]
		assert.False(t, stop, "canonical tag %q must not be a stopword", tag)
	}
}

func TestNormalize_UnknownPhraseKeepsCleanedForm(t *testing.T) {
	assert.Equal(t, "mechas", Normalize("Balayage"))
	assert.Equal(t, "massagem", Normalize("Massagem!"))
}
