package tokengate_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/directory"
	"github.com/MrEthical07/tokengate/password"
	"github.com/MrEthical07/tokengate/permission"
	"golang.org/x/crypto/bcrypt"
)

func exampleEngine() *tokengate.Engine {
	hasher, _ := password.NewBcrypt(bcrypt.MinCost)
	users := directory.NewMemory()
	_ = users.AddUser(hasher, "u-1", "alice@example.com", tokengate.RoleAdmin, "s3cret")

	engine, err := tokengate.New().
		WithSecrets(
			[]byte("example-access-secret-0123456789ab"),
			[]byte("example-refresh-secret-0123456789a"),
		).
		WithDirectory(users).
		WithPasswordVerifier(hasher).
		Build()
	if err != nil {
		panic(err)
	}
	return engine
}

// ExampleNew builds an engine backed by an in-memory user directory.
func ExampleNew() {
	engine := exampleEngine()
	defer engine.Close()

	fmt.Println(engine.SecurityReport().SigningAlgorithm)
	// Output: HS256
}

// ExampleEngine_Login walks a session through check, logout and a rejected
// refresh.
func ExampleEngine_Login() {
	engine := exampleEngine()
	defer engine.Close()
	ctx := context.Background()

	login, err := engine.Login(ctx, "alice@example.com", "s3cret")
	if err != nil {
		fmt.Println("login:", err)
		return
	}

	claims, err := engine.Check(ctx, login.AccessToken)
	if err != nil {
		fmt.Println("check:", err)
		return
	}
	fmt.Println(claims.Subject, claims.Role)

	_ = engine.Logout(ctx, login.RefreshToken)
	_, err = engine.Refresh(ctx, login.RefreshToken)
	fmt.Println(errors.Is(err, tokengate.ErrForbidden))
	// Output:
	// u-1 admin
	// true
}

// ExampleEngine_Authorize checks a role predicate against verified claims.
func ExampleEngine_Authorize() {
	engine := exampleEngine()
	defer engine.Close()
	ctx := context.Background()

	login, _ := engine.Login(ctx, "alice@example.com", "s3cret")
	claims, _ := engine.Check(ctx, login.AccessToken)

	fmt.Println(engine.Authorize(claims, permission.RequireRole(permission.RoleAdmin)) == nil)
	fmt.Println(errors.Is(engine.Authorize(claims, permission.RequireRole(permission.RoleVisitor)), tokengate.ErrForbidden))
	// Output:
	// true
	// true
}
