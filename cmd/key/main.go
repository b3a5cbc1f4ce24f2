package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/cli"
)

// key mints access tokens for seeded users so the tracking endpoints can be
// exercised without an identity provider.
func main() {
	userID := flag.String("user-id", "", "UUID of the user (subject)")
	email := flag.String("email", "", "User email embedded in the claims")
	role := flag.String("role", "DELIVERY", "User role: DELIVERY | CUSTOMER | ADMIN | SUPER_ADMIN")
	orgID := flag.String("org-id", "", "Organization UUID (required for DELIVERY and ADMIN)")
	secret := flag.String("secret", "", "JWT HMAC secret (HS256)")
	ttl := flag.Duration("ttl", 2*time.Hour, "Token lifetime")
	flag.Parse()

	if *userID == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: key --user-id=<uuid> --role=DELIVERY --org-id=<uuid> --secret='<secret>' [--ttl=2h]")
		os.Exit(2)
	}

	token, claims, err := cli.GenerateUserToken(*secret, *userID, *email, *role, *orgID, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Println("TOKEN:")
	fmt.Println(token)
	fmt.Println("\nCLAIMS:")
	fmt.Printf("  sub:   %s\n", claims.Subject)
	fmt.Printf("  role:  %s\n", claims.Role)
	if claims.Email != "" {
		fmt.Printf("  email: %s\n", claims.Email)
	}
	if claims.OrganizationID != "" {
		fmt.Printf("  org:   %s\n", claims.OrganizationID)
	}
	fmt.Printf("  iat:   %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
	fmt.Printf("  exp:   %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
}
