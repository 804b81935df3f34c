package main

import (
	"fmt"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/du-marcomm/scholarship-sync/internal/config"
)

// Generates the bcrypt hash for the ADMIN_PASSWORD_HASH environment
// variable consumed by the admin login endpoint.
func main() {
	cfg := config.Load()

	fmt.Println("=== Generate Admin Password Hash ===")

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println() // Newline after password input
	if len(bytePassword) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword(bytePassword, cfg.BcryptCost)
	if err != nil {
		fmt.Printf("Error: failed to hash password: %v\n", err)
		return
	}

	fmt.Println("\nSet this in your environment:")
	fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", string(hashed))
}
