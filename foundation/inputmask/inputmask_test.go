package inputmask

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pattern  string
	}{
		{name: "individual_id", capacity: 11, pattern: "###.###.###-##"},
		{name: "organization_id", capacity: 14, pattern: "##.###.###/####-##"},
		{name: "phone", capacity: 11, pattern: "(##) #####-####"},
		{name: "postal_code", capacity: 8, pattern: "#####-###"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, ok := Lookup(" " + strings.ToUpper(tt.name) + " ")
			require.True(t, ok)
			assert.Equal(t, tt.name, tmpl.Name())
			assert.Equal(t, tt.pattern, tmpl.Pattern())
			assert.Equal(t, tt.capacity, tmpl.Capacity())
		})
	}

	_, ok := Lookup("passport")
	assert.False(t, ok)
}

func TestApply_PostalCodeTypedOneDigitAtATime(t *testing.T) {
	want := []string{"0", "01", "013", "0131", "01310-", "01310-1", "01310-10", "01310-100"}

	var st State
	text := ""
	for i, d := range "01310100" {
		res := Apply(PostalCode, st, text+string(d))
		require.Equal(t, want[i], res.Text, "after digit %d", i+1)
		require.Equal(t, len(res.Text), res.Cursor)
		text, st = res.Text, res.State
	}
	assert.Equal(t, "01310100", st.PreviousUnmasked)
}

func TestField_TypingAndDeleting(t *testing.T) {
	f := NewField(IndividualID)

	var res Result
	for _, d := range "52998224725" {
		res = f.Edit(f.Text() + string(d))
	}
	assert.Equal(t, "529.982.247-25", res.Text)
	assert.Equal(t, 14, res.Cursor)
	assert.Equal(t, "52998224725", f.Digits())

	// deleting the last character shrinks the digit count: no literals
	res = f.Edit("529.982.247-2")
	assert.Equal(t, "5299822472", res.Text)
	assert.Equal(t, "5299822472", f.State().PreviousUnmasked)

	// typing again grows and restores the punctuation
	res = f.Edit(res.Text + "5")
	assert.Equal(t, "529.982.247-25", res.Text)
}

func TestApply_Phone(t *testing.T) {
	assert.Equal(t, "(11) 98765-4321", Phone.Format("11987654321"))
	assert.Equal(t, "(12) ", Phone.Format("12"))
	assert.Equal(t, "", Phone.Format(""))
}

func TestApply_EmptyInput(t *testing.T) {
	for _, tmpl := range []Template{IndividualID, OrganizationID, Phone, PostalCode} {
		res := Apply(tmpl, State{PreviousUnmasked: "123"}, "")
		assert.Equal(t, "", res.Text)
		assert.Equal(t, 0, res.Cursor)
		assert.Equal(t, "", res.State.PreviousUnmasked)
	}
}

func TestApply_SameLengthInsertsNoLiterals(t *testing.T) {
	res := Apply(PostalCode, State{PreviousUnmasked: "013101"}, "01310-1")
	assert.Equal(t, "013101", res.Text)
}

func TestApply_OrganizationIDTruncatesExcessDigits(t *testing.T) {
	digits := "114447770001619"

	var st State
	text := ""
	for _, d := range digits {
		res := Apply(OrganizationID, st, text+string(d))
		text, st = res.Text, res.State
	}

	assert.Equal(t, "11.444.777/0001-61", text)
	assert.NotContains(t, text, "619")
	assert.Equal(t, byte('1'), text[len(text)-1])
}

func TestApply_TrailingLiteralsAfterLastDigit(t *testing.T) {
	// the walk appends the literals that directly follow the last digit
	assert.Equal(t, "123.", IndividualID.Format("123"))
	assert.Equal(t, "11.444.777/", OrganizationID.Format("11444777"))
	assert.Equal(t, "11.444.777/0001-", OrganizationID.Format("114447770001"))
}

func TestApply_RoundTrip(t *testing.T) {
	const source = "12345678901234"

	for _, tmpl := range []Template{IndividualID, OrganizationID, Phone, PostalCode} {
		for n := 0; n <= tmpl.Capacity(); n++ {
			d := source[:n]
			masked := tmpl.Format(d)
			require.Equal(t, d, Unmask(masked), "%s/%q", tmpl.Name(), d)
			require.Equal(t, masked, tmpl.Format(Unmask(masked)), "%s/%q", tmpl.Name(), d)
		}
	}
}

func TestEcho(t *testing.T) {
	st := Echo(State{PreviousUnmasked: "12"}, "123.")
	assert.Equal(t, State{PreviousUnmasked: "123"}, st)
}

func TestField_StrictDropsExtraKeystrokes(t *testing.T) {
	f := &Field{Template: PostalCode, Strict: true}
	f.Set("01310-100")
	require.Equal(t, "01310-100", f.Text())

	res := f.Edit(f.Text() + "7")
	assert.Equal(t, "01310-100", res.Text)
	assert.Equal(t, "01310100", res.State.PreviousUnmasked)

	// a paste longer than the template is clipped
	g := &Field{Template: PostalCode, Strict: true}
	res = g.Edit("013101009999")
	assert.Equal(t, "01310-100", res.Text)
}

func TestField_SetAndReset(t *testing.T) {
	f := NewField(OrganizationID)
	f.Set("11444777000161")
	assert.Equal(t, "11.444.777/0001-61", f.Text())
	assert.Equal(t, "11444777000161", f.State().PreviousUnmasked)

	f.Reset()
	assert.Equal(t, "", f.Text())
	assert.Equal(t, State{}, f.State())
}

func TestTemplate_Clip(t *testing.T) {
	assert.Equal(t, "01310100", PostalCode.Clip("0131010099"))
	assert.Equal(t, "0131", PostalCode.Clip("0131"))
}

func TestUnmask(t *testing.T) {
	assert.Equal(t, "11987654321", Unmask("(11) 98765-4321"))
	assert.Equal(t, "", Unmask("abc"))
}
