package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"wolfgym.com/wolfgym/web/middlewares"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	role := flag.String("role", "admin", "token role claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	base64Secret := os.Getenv("WOLFGYM_SIGNING_SECRET")
	jwtSecret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}

	token, err := middlewares.CreateJWT(jwtSecret, *subject, *role, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
