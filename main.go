package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/hamrostay/checkoutservice/lib/myhttpclient"
	"github.com/hamrostay/checkoutservice/lib/mypublisher"
	"github.com/hamrostay/checkoutservice/lib/mypubsub"
	"github.com/hamrostay/checkoutservice/lib/myqueue"
	"github.com/hamrostay/checkoutservice/lib/mystore"
	"github.com/hamrostay/checkoutservice/lib/mytime"
	"github.com/hamrostay/checkoutservice/services/bookingapi"
	"github.com/hamrostay/checkoutservice/services/bookingclient"
	"github.com/hamrostay/checkoutservice/services/checkout"
	"github.com/hamrostay/checkoutservice/services/checkoutapi"
	"github.com/hamrostay/checkoutservice/services/checkoutevents"
	"github.com/hamrostay/checkoutservice/services/checkoutkhalti"
	"github.com/hamrostay/checkoutservice/services/checkoutonsite"
	"github.com/hamrostay/checkoutservice/services/checkoutstripe"
	"github.com/hamrostay/checkoutservice/services/guestidentity"
)

func main() {
	c := context.Background()

	// Local development reads its settings from a .env file
	err := godotenv.Load()
	if err != nil {
		log.Printf("No .env file found, relying on the environment")
	}

	nower := mytime.RealNower{}
	router := mux.NewRouter()

	checkoutStore, checkoutStoreCleanup, err := mystore.New[checkoutapi.CheckoutContext](c)
	if err != nil {
		log.Fatalf("Error creating checkout store: %s", err)
	}
	defer checkoutStoreCleanup()

	pendingStore, pendingStoreCleanup, err := mystore.New[checkoutkhalti.PendingPayment](c)
	if err != nil {
		log.Fatalf("Error creating pending-payment store: %s", err)
	}
	defer pendingStoreCleanup()

	queuer, queuerCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queuerCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queuer, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	err = publisher.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		log.Fatalf("Error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	siteURL := mandatoryEnv("SITE_URL")
	sender := myhttpclient.New()

	stripeService := checkoutstripe.NewWebService(mandatoryEnv("STRIPE_API_KEY"), siteURL,
		checkoutstripe.NewPayer(), nower, checkoutStore, publisher)
	err = stripeService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering stripe endpoints: %s", err)
	}

	khaltiPayer := checkoutkhalti.NewPayer(mandatoryEnv("KHALTI_API_URL"), mandatoryEnv("KHALTI_SECRET_KEY"), sender)
	khaltiService := checkoutkhalti.NewWebService(siteURL, khaltiPayer, nower, pendingStore, checkoutStore, queuer, publisher)
	err = khaltiService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering khalti endpoints: %s", err)
	}

	onsiteService := checkoutonsite.New(publisher)

	resolver := guestidentity.NewResolver(mandatoryEnv("SESSION_JWT_SECRET"))
	bookingCreator := bookingclient.New(mandatoryEnv("BOOKING_API_URL"), sender)

	checkoutService := checkout.NewWebService(checkoutStore, resolver, bookingCreator, checkout.AdapterRegistry{
		bookingapi.PaymentMethodCard:          {ProviderName: "stripe", Adapter: stripeService},
		bookingapi.PaymentMethodWallet:        {ProviderName: "khalti", Adapter: khaltiService},
		bookingapi.PaymentMethodPayAtProperty: {ProviderName: "onsite", Adapter: onsiteService},
	}, nower)
	err = checkoutService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout endpoints: %s", err)
	}

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods("GET")

	startWebServerBlocking(router)
}

func mandatoryEnv(name string) string {
	value := os.Getenv(name)
	if value == "" {
		log.Fatalf("Missing mandatory environment variable %s", name)
	}
	return value
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
