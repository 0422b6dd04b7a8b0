package domain

// Persona identifies one of the fixed response personalities a
// conversation targets.
type Persona string

const (
	// PersonaScribe generates prose content.
	PersonaScribe Persona = "scribe"
	// PersonaArtisan generates UI code artifacts.
	PersonaArtisan Persona = "artisan"
	// PersonaAnalyst produces analytics reports.
	PersonaAnalyst Persona = "analyst"
)

// DefaultPersona is used when no persona is configured.
const DefaultPersona = PersonaScribe

var personaDisplay = map[Persona]string{
	PersonaScribe:  "Scribe",
	PersonaArtisan: "Artisan",
	PersonaAnalyst: "Analyst",
}

var personaWelcome = map[Persona]string{
	PersonaScribe:  "Hello! Tell me what you'd like written.",
	PersonaArtisan: "Hello! Describe the interface you need.",
	PersonaAnalyst: "Hello! Share the data you'd like analyzed.",
}

// Valid reports whether p names a known persona.
func (p Persona) Valid() bool {
	_, ok := personaDisplay[p]
	return ok
}

// DisplayName returns the bracketed-prefix display name for p.
// Unknown personas fall back to their raw value.
func (p Persona) DisplayName() string {
	if name, ok := personaDisplay[p]; ok {
		return name
	}
	return string(p)
}

// WelcomeText returns the seeded greeting for a fresh thread.
func (p Persona) WelcomeText() string {
	if text, ok := personaWelcome[p]; ok {
		return text
	}
	return personaWelcome[DefaultPersona]
}

// Personas lists all known personas in a stable order.
func Personas() []Persona {
	return []Persona{PersonaScribe, PersonaArtisan, PersonaAnalyst}
}
