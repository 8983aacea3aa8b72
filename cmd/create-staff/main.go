// Command create-staff seeds a staff login for the review team.
//
// Usage:
//
//	create-staff -email editor@example.org -password secret -fname Jane -lname Doe
package main

import (
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"residency-application-api/config"
	"residency-application-api/models"
	"residency-application-api/utils"
)

func main() {
	email := flag.String("email", "", "staff email address")
	password := flag.String("password", "", "staff password")
	fname := flag.String("fname", "", "first name")
	lname := flag.String("lname", "", "last name")
	flag.Parse()

	if !utils.ValidateEmail(*email) {
		log.Fatal("a valid -email is required")
	}
	if ok, msg := utils.ValidatePassword(*password); !ok {
		log.Fatal(msg)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	config.InitDB()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("failed to hash password:", err)
	}

	now := time.Now()
	user := models.User{
		UserID:       uuid.New().String(),
		Email:        utils.SanitizeInput(*email),
		PasswordHash: string(hash),
		UserFname:    *fname,
		UserLname:    *lname,
		Role:         models.RoleStaff,
		CreateAt:     &now,
		UpdateAt:     &now,
	}

	if err := config.DB.Create(&user).Error; err != nil {
		log.Fatal("failed to create staff user:", err)
	}

	log.Printf("staff user %s created (%s)", user.Email, user.UserID)
}
