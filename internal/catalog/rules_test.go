package catalog

import "testing"

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want string
	}{
		{"size and six pack", "Tequila Blanco 750ml 6Pack", "Tequila Blanco"},
		{"liter size uppercase", "Ron Añejo 1L", "Ron Añejo"},
		{"spaced lt size", "VODKA ABSOLUT 1 LT", "Vodka Absolut"},
		{"vol token", "Mezcal Joven 40 vol 750ml", "Mezcal Joven"},
		{"multipack fraction", "Cerveza Lata 12/355ml", "Cerveza Lata"},
		{"range and packaging", "Vino Tinto 6-1 Caja", "Vino Tinto"},
		{"bullet separator", "Brandy • Presidente", "Brandy Presidente"},
		{"litros word and stray number", "Jugo Naranja 2 Litros", "Jugo Naranja"},
		{"percent", "Ginebra 47% Botella", "Ginebra"},
		{"title case keeps accents whole", "AÑEJO reserva", "Añejo Reserva"},
		{"digits inside words survive", "7up Lima", "7up Lima"},
		{"nbsp before size", "Ron Blanco 750\u00a0ml", "Ron Blanco"},
		{"nbsp between words", "Ron\u00a0\u00a0Blanco 700ml", "Ron Blanco"},
		{"ideographic space trimmed", "\u3000Ginebra 1L\u00a0", "Ginebra"},
		{"everything removed", "750ml", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.desc); got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.desc, got, tt.want)
			}
		})
	}
}

func TestNameRules_PerStep(t *testing.T) {
	tests := []struct {
		step  int
		input string
		want  string
	}{
		{1, "750ml Tequila", " Tequila"},
		{1, "Vodka 1 LT", "Vodka "},
		{1, "Gin 700ML", "Gin "},
		{1, "Whisky 12 Años", "Whisky 12 Años"},
		{1, "Ron Blanco 750\u00a0ml", "Ron Blanco "},

		{2, "Mezcal Pza", "Mezcal "},
		{2, "Pack Cerveza", " Cerveza"},
		{2, "2 Litros", "2 "},
		{2, "Packaging", "Packaging"},

		{3, "Ron 40% 35vol", "Ron  "},
		{3, "38 vol", ""},

		{4, "Cerveza 12/4", "Cerveza"},
		{4, "Caja 1//", "Caja"},
		{4, "Vino 6-1", "Vino "},
		{4, "Cerveza\u00a012/4", "Cerveza"},

		{5, "Ron-Blanco/Oro", "Ron Blanco Oro"},
		{5, "A — B", "A   B"},
		{5, "A -- B", "A   B"},

		{6, "Whisky 12 Años", "Whisky  Años"},
		{6, "7up", "7up"},

		{7, "  a   b  ", "a b"},
		{7, "a\t\tb", "a b"},
		{7, "Ron\u00a0\u00a0Blanco", "Ron Blanco"},
		{7, "\ufeff a \u2028", "a"},

		{8, "TEQUILA reposado", "Tequila Reposado"},
		{8, "don julio", "Don Julio"},
	}

	for _, tt := range tests {
		got := ApplyRules(tt.input, RulesForStep(tt.step))
		if got != tt.want {
			t.Errorf("step %d on %q = %q, want %q", tt.step, tt.input, got, tt.want)
		}
	}
}

func TestNameRules_Ordered(t *testing.T) {
	prev := 0
	for _, r := range NameRules {
		if r.Step < prev {
			t.Errorf("rule %q (step %d) follows step %d", r.Name, r.Step, prev)
		}
		prev = r.Step
		if (r.Pattern == nil) == (r.Fn == nil) {
			t.Errorf("rule %q must set exactly one of Pattern or Fn", r.Name)
		}
	}
	if prev != 8 {
		t.Errorf("last step = %d, want 8", prev)
	}
}

func TestExtractPresentation(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Ron Añejo 1L", "1l"},
		{"Tequila Blanco 750ml 6Pack", "750ml"},
		{"Vino Tinto 750 ML", "750ml"},
		{"Vodka 1 LT", "1l"},
		{"Mezcal Joven", ""},
		{"", ""},
		// any number followed by an l-word counts
		{"Cerveza 12 Latas", "12l"},
	}

	for _, tt := range tests {
		if got := ExtractPresentation(tt.desc); got != tt.want {
			t.Errorf("ExtractPresentation(%q) = %q, want %q", tt.desc, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"a", "A"},
		{"RON bacardí BLANCO", "Ron Bacardí Blanco"},
		{"d'aristi xtabentún", "D'Aristi Xtabentún"},
		{"ñandú", "Ñandú"},
	}

	for _, tt := range tests {
		if got := TitleCase(tt.input); got != tt.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
