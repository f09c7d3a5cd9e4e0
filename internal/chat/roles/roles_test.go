package roles

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
	}{
		{"CEO", CEO},
		{"ceo y fundador", CEO},
		{"Director Comercial", Admin},
		{"Gerente de ventas", Admin},
		{"dueño", Admin},
		{"Owner", Admin},
		{"vendedor", Vendor},
		{"Vendedor de campo", Vendor},
		{"asesor de credito", Advisor},
		{"Asesor Hipotecario", Advisor},
		{"coordinador", Coordinator},
		{"", Unknown},
		{"practicante", Unknown},
	}

	for _, tc := range tests {
		if got := Classify(tc.raw); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	if !CEO.IsAdmin() || !Admin.IsAdmin() {
		t.Error("ceo and admin must bypass assignment scoping")
	}
	for _, r := range []Role{Vendor, Advisor, Coordinator, Unknown} {
		if r.IsAdmin() {
			t.Errorf("%v must not bypass assignment scoping", r)
		}
	}
}
