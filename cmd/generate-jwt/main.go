package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Generates an admin JWT for the /api/admin surface.
func main() {
	secret := flag.String("secret", os.Getenv("ADMIN_JWT_SECRET"), "admin JWT secret")
	subject := flag.String("subject", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *secret == "" {
		fmt.Println("Error: secret is required (flag -secret or ADMIN_JWT_SECRET)")
		os.Exit(1)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    "swap-backend",
		Subject:   *subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(*secret))
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("============================================================")
	fmt.Println("Admin JWT Token Generated")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(tokenString)
	fmt.Println()
	fmt.Printf("  Subject: %s\n", *subject)
	fmt.Printf("  Expires: %s\n", claims.ExpiresAt.Time)
	fmt.Println()
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/api/admin/quotes\n", tokenString)
}
