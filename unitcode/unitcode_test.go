package unitcode

import (
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioPropertyID = "1234abcd-0000-0000-0000-000000000000"

func TestPropertyHash(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: "1000"},
		{name: "short ascii", input: "abc", expected: "7354"},
		{name: "uuid", input: scenarioPropertyID, expected: "9844"},
		{name: "uuid without hyphens", input: "1234abcd000000000000000000000000", expected: "9844"},
		{name: "random uuid", input: "550e8400-e29b-41d4-a716-446655440000", expected: "3919"},
		{name: "non ascii", input: "ñandú", expected: "1348"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PropertyHash(tt.input))
		})
	}
}

func TestPropertyHash_Range(t *testing.T) {
	for i := 0; i < 500; i++ {
		h := PropertyHash(fmt.Sprintf("property-%d-%d", i, i*7919))
		require.Len(t, h, 4)
		assert.GreaterOrEqual(t, h, "1000")
		assert.LessOrEqual(t, h, "9999")
	}
}

func TestFloorDigit(t *testing.T) {
	assert.Equal(t, 0, FloorDigit(0))
	assert.Equal(t, 5, FloorDigit(5))
	assert.Equal(t, 5, FloorDigit(15))
	assert.Equal(t, 7, FloorDigit(-3))
	assert.Equal(t, 0, FloorDigit(-10))
}

func TestUnitSequence(t *testing.T) {
	assert.Equal(t, "001", UnitSequence(1))
	assert.Equal(t, "042", UnitSequence(42))
	assert.Equal(t, "999", UnitSequence(999))
	assert.Equal(t, "000", UnitSequence(1000))
	assert.Equal(t, "234", UnitSequence(1234))
	assert.Equal(t, "999", UnitSequence(-1))
}

func TestCalculateCheckDigits(t *testing.T) {
	assert.Equal(t, "00", CalculateCheckDigits("00000000"))
	assert.Equal(t, "66", CalculateCheckDigits("12345678"))
	assert.Equal(t, "82", CalculateCheckDigits("99999999"))
	assert.Equal(t, "81", CalculateCheckDigits("10000000"))
}

func TestGenerate_KnownValues(t *testing.T) {
	tests := []struct {
		propertyID string
		floor      int
		unitIndex  int
		expected   string
	}{
		{scenarioPropertyID, 5, 102, "9844510273"},
		{"", 0, 1, "1000000172"},
		{"", 1, 1, "1000100153"},
		{"abc", 0, 0, "7354000079"},
		{"550e8400-e29b-41d4-a716-446655440000", 2, 7, "3919200731"},
		{"prop-1", 12, 1000, "3718200031"},
		{"prop-1", -3, 1, "3718700117"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d/%d", tt.propertyID, tt.floor, tt.unitIndex), func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.propertyID, tt.floor, tt.unitIndex))
		})
	}
}

func TestGenerate_Scenario(t *testing.T) {
	code := Generate(scenarioPropertyID, 5, 102)
	require.Len(t, code, Length)
	assert.True(t, Validate(code))

	parsed := Parse(code)
	assert.Equal(t, 5, parsed.FloorNumber)
	assert.Equal(t, 102, parsed.UnitIndex)
	assert.Equal(t, "9844", parsed.PropertyHash)
	assert.True(t, parsed.IsValid)
}

func TestGenerate_DeterministicAndWellFormed(t *testing.T) {
	digits := regexp.MustCompile(`^\d{10}$`)
	ids := []string{"", "a", "abc", scenarioPropertyID, "---", "Gedung Melati Blok C"}
	for _, id := range ids {
		for floor := -12; floor <= 25; floor += 3 {
			for _, idx := range []int{0, 1, 9, 10, 99, 100, 999, 1000, 12345} {
				first := Generate(id, floor, idx)
				assert.Equal(t, first, Generate(id, floor, idx))
				assert.Regexp(t, digits, first)
				assert.True(t, Validate(first), "generated code %s should validate", first)
			}
		}
	}
}

func TestGenerate_FloorAliasing(t *testing.T) {
	assert.Equal(t, Generate("abc", 5, 3), Generate("abc", 15, 3))
	assert.Equal(t, Generate("abc", 5, 3), Generate("abc", 105, 3))
}

func TestGenerate_SequenceTruncation(t *testing.T) {
	wrapped := Generate("abc", 2, 1000)
	zero := Generate("abc", 2, 0)
	assert.Equal(t, zero, wrapped)
	assert.Equal(t, "000", wrapped[5:8])
	assert.Equal(t, Generate("abc", 2, 1), Generate("abc", 2, 1001))
}

func TestValidate_SingleDigitSubstitution(t *testing.T) {
	bases := []string{
		Generate(scenarioPropertyID, 5, 102),
		Generate("abc", 3, 1),
		Generate("", 0, 1),
		Generate("550e8400-e29b-41d4-a716-446655440000", 9, 999),
	}
	for _, code := range bases {
		for pos := 0; pos < baseLength; pos++ {
			for d := byte('0'); d <= '9'; d++ {
				if code[pos] == d {
					continue
				}
				mutated := []byte(code)
				mutated[pos] = d
				assert.False(t, Validate(string(mutated)), "substituting %c at %d in %s", d, pos, code)
			}
		}
	}
}

func TestValidate_Malformed(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "too short", code: "123"},
		{name: "too long", code: "12345678901"},
		{name: "letters", code: "12345abc90"},
		{name: "empty", code: ""},
		{name: "formatted", code: "9844-5-102-73"},
		{name: "bad checksum", code: "9844510274"},
		{name: "space padded", code: " 984451027"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Validate(tt.code))
			assert.NotPanics(t, func() {
				assert.False(t, Parse(tt.code).IsValid)
			})
		})
	}
}

func TestParse_WrongLength(t *testing.T) {
	assert.Equal(t, Parsed{}, Parse("123"))
	assert.Equal(t, Parsed{}, Parse("12345678901"))
}

func TestParse_NonDigitFields(t *testing.T) {
	parsed := Parse("12345abc90")
	assert.Equal(t, "1234", parsed.PropertyHash)
	assert.Equal(t, 5, parsed.FloorNumber)
	assert.Equal(t, 0, parsed.UnitIndex)
	assert.False(t, parsed.IsValid)
}

func TestParse_BadChecksumKeepsFields(t *testing.T) {
	parsed := Parse("7354300100")
	assert.Equal(t, "7354", parsed.PropertyHash)
	assert.Equal(t, 3, parsed.FloorNumber)
	assert.Equal(t, 1, parsed.UnitIndex)
	assert.False(t, parsed.IsValid)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "abc", Format("abc"))
	assert.Equal(t, "", Format(""))
	assert.Equal(t, "12345678901", Format("12345678901"))
	assert.Equal(t, "9844-5-102-73", Format("9844510273"))

	formatted := Format(Generate("abc", 4, 56))
	assert.Len(t, formatted, 13)
	assert.Regexp(t, `^\d{4}-\d-\d{3}-\d{2}$`, formatted)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "9844510273", Normalize("9844-5-102-73"))
	assert.Equal(t, "9844510273", Normalize(" 9844 5 102 73 "))
	assert.Equal(t, "9844510273", Normalize("9844510273"))
	assert.True(t, Validate(Normalize(Format(Generate("abc", 1, 2)))))
}

func TestGenerateSequential(t *testing.T) {
	codes := GenerateSequential("abc", 3, 5, 1)
	require.Len(t, codes, 5)
	assert.Equal(t, []string{
		"7354300103",
		"7354300294",
		"7354300385",
		"7354300476",
		"7354300567",
	}, codes)
	for i, code := range codes {
		assert.True(t, Validate(code))
		assert.Equal(t, i+1, Parse(code).UnitIndex)
	}
}

func TestGenerateSequential_StartIndex(t *testing.T) {
	codes := GenerateSequential("abc", 3, 3, 998)
	require.Len(t, codes, 3)
	assert.Equal(t, 998, Parse(codes[0]).UnitIndex)
	assert.Equal(t, 999, Parse(codes[1]).UnitIndex)
	assert.Equal(t, 0, Parse(codes[2]).UnitIndex)
}

func TestGenerateSequential_EmptyCount(t *testing.T) {
	assert.Empty(t, GenerateSequential("abc", 1, 0, 1))
	assert.Empty(t, GenerateSequential("abc", 1, -4, 1))
	assert.NotNil(t, GenerateSequential("abc", 1, 0, 1))
}

func TestGenerate_ConcurrentCallers(t *testing.T) {
	want := Generate(scenarioPropertyID, 5, 102)
	var wg sync.WaitGroup
	results := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- Generate(scenarioPropertyID, 5, 102)
		}()
	}
	wg.Wait()
	close(results)
	for got := range results {
		assert.Equal(t, want, got)
	}
}
