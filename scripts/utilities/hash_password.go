//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pagepulse/pagepulse/internal/auth"
)

// Generates a bcrypt hash for use as ADMIN_PASSWORD. The login handler
// accepts either a plaintext password or a bcrypt hash; storing the hash
// keeps the plaintext out of the environment.
//
// Usage: go run scripts/utilities/hash_password.go <password>
func main() {
	if len(os.Args) != 2 {
		log.Fatal("usage: hash_password <password>")
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	fmt.Println(hash)
	fmt.Println()
	fmt.Println("Set this as ADMIN_PASSWORD in the server environment.")
}
