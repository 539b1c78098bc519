package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	cartSlug := os.Getenv("CART_SLUG")
	if cartSlug == "" {
		cartSlug = "default"
	}

	var cartID string
	err = db.QueryRow(`
		INSERT INTO carts (slug) VALUES ($1)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id;
	`, cartSlug).Scan(&cartID)
	if err != nil {
		log.Fatalf("Failed to ensure cart %q: %v", cartSlug, err)
	}
	log.Printf("Using Cart ID: %s", cartID)

	seedProducts(db)

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) {
	products := []struct {
		Name  string
		Price int64
	}{
		{"Kopi Gayo 250g", 85000},
		{"Kopi Toraja 250g", 98000},
		{"Teh Melati Celup 25s", 12000},
		{"Gula Aren Cair 500ml", 25000},
		{"Beras Pandan Wangi 5kg", 78000},
		{"Minyak Goreng 1L", 32000},
		{"Sambal Terasi 140g", 18000},
		{"Kerupuk Udang 200g", 9000},
		{"Kecap Manis 275ml", 15500},
		{"Mie Instan Goreng (5 pack)", 13500},
		{"Santan Instan 200ml", 8000},
		{"Rendang Siap Saji 180g", 42000},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (name, price)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1);
		`, p.Name, p.Price)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}
