package user

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

func TestPasswordPolicy(t *testing.T) {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)

	usr := User{ID: "8c1744e7"}
	_ = usr.SetPassword("0ldPassw0rd!")
	token, err := MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	uid := EncodeUID(usr)

	rp := func(pwd string) ResetUserPassword {
		return ResetUserPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: pwd}
	}

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "sH0r7!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "white space1A!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no uppercase", pwd: "alllower1!", wantTag: pwdComplexityTag},
		{name: "no digit", pwd: "NoDigitsHere!", wantTag: pwdComplexityTag},
		{name: "no special", pwd: "NoSpecial123", wantTag: pwdComplexityTag},
		{name: "valid", pwd: "G00d&Pr0per"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(rp(tt.pwd))
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Struct() unexpected error = %v", err)
				}
				return
			}

			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Struct() error = %v, want validator.ValidationErrors", err)
			}
			for _, vErr := range vErrs {
				if vErr.Tag() == tt.wantTag {
					return
				}
			}
			t.Errorf("Struct() errors = %v, want tag %q", vErrs, tt.wantTag)
		})
	}
}

func TestNewUserValidation(t *testing.T) {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)

	tests := []struct {
		name    string
		nu      NewUser
		wantTag string
	}{
		{
			name: "valid",
			nu: NewUser{
				Name: "Amani J", Username: "amani01", Email: "amani@test.cd",
				Role: RoleStudent, Password: "G00d&Pr0per", PasswordConfirm: "G00d&Pr0per",
			},
		},
		{
			name: "bad role",
			nu: NewUser{
				Name: "Amani J", Username: "amani01", Email: "amani@test.cd",
				Role: "headmaster", Password: "G00d&Pr0per", PasswordConfirm: "G00d&Pr0per",
			},
			wantTag: roleTag,
		},
		{
			name: "no username nor email",
			nu: NewUser{
				Name: "Amani J", Role: RoleStudent,
				Password: "G00d&Pr0per", PasswordConfirm: "G00d&Pr0per",
			},
			wantTag: usernameOrEmailTag,
		},
		{
			name: "password mismatch",
			nu: NewUser{
				Name: "Amani J", Username: "amani01", Email: "amani@test.cd",
				Role: RoleStudent, Password: "G00d&Pr0per", PasswordConfirm: "different",
			},
			wantTag: "eqfield",
		},
		{
			name: "password similar to username",
			nu: NewUser{
				Name: "Amani J", Username: "amanij2021", Email: "amani@test.cd",
				Role: RoleStudent, Password: "Amanij2021!", PasswordConfirm: "Amanij2021!",
			},
			wantTag: pwdAttrSimTag,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.nu)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Struct() unexpected error = %v", err)
				}
				return
			}

			vErrs, ok := err.(validator.ValidationErrors)
			if !ok {
				t.Fatalf("Struct() error = %v, want validator.ValidationErrors", err)
			}
			for _, vErr := range vErrs {
				if vErr.Tag() == tt.wantTag {
					return
				}
			}
			t.Errorf("Struct() errors = %v, want tag %q", vErrs, tt.wantTag)
		})
	}
}
