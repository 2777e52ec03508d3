// Package profile defines per-deck enrichment policy: which deck to scan,
// how to prompt the text model, and which voices speak each field. Two
// profiles ship built in (french and japanese); config files may override
// them or define entirely new ones.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Profile is the full enrichment policy for one deck.
type Profile struct {
	Name  string      `mapstructure:"-"`
	Deck  string      `mapstructure:"deck"`
	Text  TextPolicy  `mapstructure:"text"`
	Audio AudioPolicy `mapstructure:"audio"`
}

// TextPolicy selects the prompt template and model for sentence and
// explanation generation.
type TextPolicy struct {
	Provider string `mapstructure:"provider"` // "openai" or "gemini"
	Model    string `mapstructure:"model"`
	// PromptTemplate must contain a single %s placeholder for the word.
	PromptTemplate string `mapstructure:"prompt"`
	// Delimiter separates sentence from explanation in the response.
	Delimiter string `mapstructure:"delimiter"`
}

// AudioPolicy selects voices and synthesis models per audio sub-stage.
// The word is spoken in the source language, the sentence by a
// multilingual model, and the explanation in the explanation language.
type AudioPolicy struct {
	Provider string `mapstructure:"provider"` // "elevenlabs" or "openai"
	Voice    string `mapstructure:"voice"`
	Format   string `mapstructure:"format"`

	WordModel        string `mapstructure:"word_model"`
	SentenceModel    string `mapstructure:"sentence_model"`
	ExplanationModel string `mapstructure:"explanation_model"`

	WordLanguage        string `mapstructure:"word_language"`
	ExplanationLanguage string `mapstructure:"explanation_language"`

	// OpenAI TTS only.
	Speed float64 `mapstructure:"speed"`
}

const frenchPrompt = `You are an assistant for beginner French learners.

Given a French word:

1. Write a short, simple French example sentence that clearly includes this exact word.
2. Give a brief English explanation of its meaning (not a direct translation). Avoid repeating the word and do not start with phrases like 'It means...' or 'This is a word describing...', give the meaning straight away. If it's a number, use other numbers for reference, not the number itself. Don't use any French words, all words should be in English.
3. Separate the sentence and explanation with a '$'. Output nothing else.

Word: %s`

const japanesePrompt = `Dada uma palavra em japonês:

1. Escreva uma frase de exemplo curta e simples em japonês que inclua claramente essa palavra exata.
2. Forneça uma breve explicação em português de seu significado (não uma tradução direta). Evite repetir a palavra e não comece com frases como 'Significa...' ou 'Esta é uma palavra que descreve...', dê o significado diretamente. Se for um número, use outros números como referência, não o número em si. Não use nenhuma palavra em japonês, todas as palavras devem estar em português.
3. Separe a frase e a explicação com um '$'. Não produza mais nada.

Palavra: %s`

// builtins returns the shipped profiles. A fresh map every call so
// callers can mutate their copy.
func builtins() map[string]Profile {
	return map[string]Profile{
		"french": {
			Name: "french",
			Deck: "French Vocabulary",
			Text: TextPolicy{
				Provider:       "openai",
				Model:          "gpt-4.1",
				PromptTemplate: frenchPrompt,
				Delimiter:      "$",
			},
			Audio: AudioPolicy{
				Provider:            "elevenlabs",
				Voice:               "ohItIVrXTBI80RrUECOD",
				Format:              "mp3",
				WordModel:           "eleven_turbo_v2_5",
				SentenceModel:       "eleven_multilingual_v2",
				ExplanationModel:    "eleven_turbo_v2_5",
				WordLanguage:        "fr",
				ExplanationLanguage: "en",
				Speed:               1.0,
			},
		},
		"japanese": {
			Name: "japanese",
			Deck: "Japanese Vocabulary",
			Text: TextPolicy{
				Provider:       "openai",
				Model:          "gpt-4.1",
				PromptTemplate: japanesePrompt,
				Delimiter:      "$",
			},
			Audio: AudioPolicy{
				Provider:            "elevenlabs",
				Voice:               "nPczCjzI2devNBz1zQrb",
				Format:              "mp3",
				WordModel:           "eleven_turbo_v2_5",
				SentenceModel:       "eleven_multilingual_v2",
				ExplanationModel:    "eleven_turbo_v2_5",
				WordLanguage:        "ja",
				ExplanationLanguage: "pt",
				Speed:               1.0,
			},
		},
	}
}

// Names returns all built-in profile names, sorted.
func Names() []string {
	b := builtins()
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load resolves a profile by name: built-in defaults first, then any
// overrides from the profiles.<name> config section. A config-only
// profile (no built-in of that name) is valid as long as it is complete.
func Load(v *viper.Viper, name string) (*Profile, error) {
	b := builtins()
	p, ok := b[name]
	if !ok {
		p = Profile{Name: name, Text: TextPolicy{Provider: "openai", Delimiter: "$"},
			Audio: AudioPolicy{Provider: "elevenlabs", Format: "mp3", Speed: 1.0}}
	}

	if sub := v.Sub("profiles." + name); sub != nil {
		if err := sub.Unmarshal(&p); err != nil {
			return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
		}
		p.Name = name
	} else if !ok {
		return nil, fmt.Errorf("unknown profile %q (built-in: %s)", name, strings.Join(Names(), ", "))
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks a profile is complete enough to run.
func (p *Profile) Validate() error {
	if p.Deck == "" {
		return fmt.Errorf("profile %q: deck is required", p.Name)
	}
	if p.Text.Model == "" {
		return fmt.Errorf("profile %q: text model is required", p.Name)
	}
	if !strings.Contains(p.Text.PromptTemplate, "%s") {
		return fmt.Errorf("profile %q: prompt template must contain a %%s word placeholder", p.Name)
	}
	if len(p.Text.Delimiter) != 1 {
		return fmt.Errorf("profile %q: delimiter must be a single character", p.Name)
	}
	if p.Audio.Voice == "" {
		return fmt.Errorf("profile %q: audio voice is required", p.Name)
	}
	return nil
}

// DeckQuery returns the note store query matching the profile's deck.
func (p *Profile) DeckQuery() string {
	return fmt.Sprintf("deck:%s", p.Deck)
}
