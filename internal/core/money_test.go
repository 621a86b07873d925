package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12", 1200, false},
		{"0.01", 1, false},
		{"12.345", 1234, false},
		{"12.346", 1235, false},
		{".50", 50, false},
		{"", 0, true},
		{"0", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %d cents, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyAmount(t *testing.T) {
	if got := (Money{Cents: 1234}).Amount(); got != 12.34 {
		t.Fatalf("amount = %v, want 12.34", got)
	}
}

func TestFormatPounds(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "£0.00"},
		{1234, "£12.34"},
		{100000, "£1000.00"},
		{-10000, "-£100.00"},
		{5, "£0.05"},
	}
	for _, tc := range cases {
		if got := FormatPounds(tc.cents); got != tc.want {
			t.Fatalf("FormatPounds(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestParseCategoryAndKind(t *testing.T) {
	if c, err := ParseCategory("Food"); err != nil || c != CategoryFood {
		t.Fatalf("ParseCategory(Food) = %v, %v", c, err)
	}
	if _, err := ParseCategory("Groceries"); err == nil {
		t.Fatal("expected error for unknown category")
	}
	if k, err := ParseKind("Expense"); err != nil || k != Expense {
		t.Fatalf("ParseKind(Expense) = %v, %v", k, err)
	}
	if _, err := ParseKind("transfer"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
