package colorutil

import "testing"

func TestDifferenceSelfIsZero(t *testing.T) {
	for _, c := range []RGB{{}, {R: 255, G: 255, B: 255}, {R: 196, G: 22, B: 42}, {R: 1, G: 2, B: 3}} {
		if d := Difference(c, c); d != (Diff{}) {
			t.Errorf("Difference(%v, %v) = %+v, want zero", c, c, d)
		}
	}
}

func TestDifference(t *testing.T) {
	d := Difference(RGB{R: 10, G: 200, B: 30}, RGB{R: 40, G: 180, B: 30})
	want := Diff{DR: 30, DG: 20, DB: 0, Total: 50}
	if d != want {
		t.Errorf("Difference = %+v, want %+v", d, want)
	}
}

func TestIsSimilar(t *testing.T) {
	neutral := RGB{R: 100, G: 100, B: 100}
	red := RGB{R: 245, G: 54, B: 54}
	yellow := RGB{R: 250, G: 176, B: 5}

	tests := []struct {
		name      string
		candidate RGB
		reference RGB
		want      bool
	}{
		{"exact", red, red, true},
		{"neutral within", RGB{R: 129, G: 71, B: 100}, neutral, true},
		{"neutral at tolerance", RGB{R: 130, G: 100, B: 100}, neutral, false},
		{"red channel doubled", RGB{R: 186, G: 54, B: 54}, red, true},
		{"red channel beyond doubled", RGB{R: 185, G: 54, B: 54}, red, false},
		{"red green not widened", RGB{R: 245, G: 84, B: 54}, red, false},
		{"yellow red and green widened", RGB{R: 206, G: 132, B: 5}, yellow, true},
		{"yellow blue not widened", RGB{R: 250, G: 176, B: 35}, yellow, false},
		{"yellow beyond widened", RGB{R: 205, G: 176, B: 5}, yellow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSimilar(tt.candidate, tt.reference); got != tt.want {
				t.Errorf("IsSimilar(%v, %v) = %v, want %v", tt.candidate, tt.reference, got, tt.want)
			}
		})
	}
}

// The reference, not the candidate, selects the widened tolerance.
func TestIsSimilarReferenceSelectsTolerance(t *testing.T) {
	tests := []struct {
		name string
		a, b RGB
	}{
		{"red", RGB{R: 145, G: 22, B: 42}, RGB{R: 196, G: 22, B: 42}},
		{"yellow", RGB{R: 210, G: 140, B: 5}, RGB{R: 250, G: 176, B: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsSimilar(tt.a, tt.b) {
				t.Errorf("IsSimilar(%v, %v) = false, want true", tt.a, tt.b)
			}
			if IsSimilar(tt.b, tt.a) {
				t.Errorf("IsSimilar(%v, %v) = true, want false", tt.b, tt.a)
			}
		})
	}
}

func TestIsSimilarTol(t *testing.T) {
	if IsSimilarTol(RGB{R: 10}, RGB{}, 10) {
		t.Error("difference equal to tolerance should not match")
	}
	if !IsSimilarTol(RGB{R: 9}, RGB{}, 10) {
		t.Error("difference under tolerance should match")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"rgb(250, 176, 5)", RGB{R: 250, G: 176, B: 5}, false},
		{"rgb(196,22,42)", RGB{R: 196, G: 22, B: 42}, false},
		{"  RGB(1, 2, 3) ", RGB{R: 1, G: 2, B: 3}, false},
		{"rgba(245, 54, 54, 0.5)", RGB{R: 245, G: 54, B: 54}, false},
		{"#fab005", RGB{R: 250, G: 176, B: 5}, false},
		{"#f00", RGB{R: 255}, false},
		{"rgb(256, 0, 0)", RGB{}, true},
		{"rgb(1, 2)", RGB{}, true},
		{"#12345", RGB{}, true},
		{"red", RGB{}, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	c := RGB{R: 196, G: 22, B: 42}
	if c.String() != "rgb(196, 22, 42)" {
		t.Errorf("String() = %q", c.String())
	}
	if c.Hex() != "#c4162a" {
		t.Errorf("Hex() = %q", c.Hex())
	}
	if got := MustParse(c.String()); got != c {
		t.Errorf("MustParse(String()) = %v, want %v", got, c)
	}
}

func TestShouldIgnore(t *testing.T) {
	if !ShouldIgnore(RGB{R: 24, G: 27, B: 31}) {
		t.Error("dark panel background should be ignored")
	}
	if ShouldIgnore(RGB{R: 24, G: 27, B: 32}) {
		t.Error("near-background color should not be ignored")
	}
	if ShouldIgnore(RGB{R: 245, G: 54, B: 54}) {
		t.Error("alert red should not be ignored")
	}
}

func TestShouldIgnoreCSS(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"transparent", true},
		{"rgba(0, 0, 0, 0)", true},
		{"rgba(10, 20, 30, 0)", true},
		{"rgb(255, 255, 255)", true},
		{"rgb(250, 176, 5)", false},
		{"rgba(250, 176, 5, 1)", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := ShouldIgnoreCSS(tt.in); got != tt.want {
			t.Errorf("ShouldIgnoreCSS(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
