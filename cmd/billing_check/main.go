package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"medsafe_app/internal/services"
)

// Manual smoke check against the billing sandbox: registers a throwaway
// customer and creates a boleto charge for it.
func main() {
	name := flag.String("name", "MedSafe Teste", "Customer name")
	email := flag.String("email", "", "Customer email (mandatory)")
	cpf := flag.String("cpf", "", "Customer CPF (mandatory)")
	value := flag.Float64("value", 10.0, "Charge value")
	flag.Parse()

	if *email == "" || *cpf == "" {
		log.Fatal("Please provide -email and -cpf")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	client := services.NewBillingClient()
	ctx := context.Background()

	customer, err := client.CreateCustomer(ctx, services.CustomerRequest{
		Name:    *name,
		Email:   *email,
		CpfCnpj: *cpf,
	})
	if err != nil {
		log.Fatalf("CreateCustomer failed: %v", err)
	}
	log.Printf("Customer created: %s", customer.ID)

	payment, err := client.CreatePayment(ctx, services.PaymentRequest{
		Customer:    customer.ID,
		BillingType: "BOLETO",
		Value:       *value,
		DueDate:     time.Now().AddDate(0, 0, client.BoletoDueDays).Format("2006-01-02"),
		Description: "MedSafe - smoke check",
	})
	if err != nil {
		log.Fatalf("CreatePayment failed: %v", err)
	}

	log.Printf("Payment created: %s (status %s)", payment.ID, payment.Status)
	log.Printf("Boleto URL: %s", payment.BankSlipURL)

	if ident, err := client.GetBoletoIdentification(ctx, payment.ID); err == nil {
		log.Printf("Digitable line: %s", ident.IdentificationField)
	}
}
