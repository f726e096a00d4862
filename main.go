package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/DavidGamba/go-getoptions"
	"github.com/cyverse-de/configurate"
	"github.com/cyverse-de/go-mod/otelutils"
	"github.com/cyverse-de/messaging/v9"
	"github.com/sirupsen/logrus"

	"github.com/hathak/notifications/api"
	"github.com/hathak/notifications/common"
	"github.com/hathak/notifications/db"
	"github.com/hathak/notifications/delivery"
	"github.com/hathak/notifications/dispatch"
	"github.com/hathak/notifications/handlers"
	"github.com/hathak/notifications/handlerset"
	"github.com/hathak/notifications/sweeper"
)

const serviceName = "notifications"

// queueName is the base name of the AMQP queue this service consumes events from.
const queueName = "notifications"

// commandLineOptionValues represents the values of the command-line options that were passed on the command line when
// this service was invoked.
type commandLineOptionValues struct {
	Config string
}

func parseCommandLine() *commandLineOptionValues {
	optionValues := &commandLineOptionValues{}
	opt := getoptions.New()

	// Default option values.
	defaultConfigPath := "/etc/hathak/notifications.yml"

	// Define the command-line options.
	opt.Bool("help", false, opt.Alias("h", "?"))
	opt.StringVar(&optionValues.Config, "config", defaultConfigPath,
		opt.Alias("c"),
		opt.Description("the path to the configuration file"))

	// Parse the command line, handling requests for help and usage errors.
	_, err := opt.Parse(os.Args[1:])
	if opt.Called("help") {
		fmt.Fprintf(os.Stderr, opt.Help())
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err)
		fmt.Fprintf(os.Stderr, opt.Help(getoptions.HelpSynopsis))
		os.Exit(1)
	}

	return optionValues
}

// intervalSetting parses a duration setting, falling back to a default when the setting is
// absent or malformed.
func intervalSetting(log *logrus.Entry, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	interval, err := time.ParseDuration(value)
	if err != nil {
		log.WithError(err).Warnf("invalid interval '%s'; using %s", value, fallback)
		return fallback
	}
	return interval
}

func main() {
	// Parse the command-line.
	optionValues := parseCommandLine()

	// Initialize logging.
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("service", serviceName)

	// Set up tracing.
	tracerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shutdown := otelutils.TracerProviderFromEnv(tracerCtx, serviceName, func(e error) { log.Fatal(e) })
	defer shutdown()

	// Read in the configuration file.
	cfg, err := configurate.InitDefaults(optionValues.Config, configurate.JobServicesDefaults)
	if err != nil {
		log.Fatal(err)
	}

	// Retrieve the AMQP settings.
	amqpSettings := &common.AMQPSettings{
		URI:          cfg.GetString("amqp.uri"),
		ExchangeName: cfg.GetString("amqp.exchange.name"),
		ExchangeType: cfg.GetString("amqp.exchange.type"),
	}

	// Retrieve the service settings.
	listenPort := cfg.GetInt("notifications.listen_port")
	if listenPort == 0 {
		listenPort = 8080
	}
	sweepInterval := intervalSetting(log, cfg.GetString("notifications.sweep_interval"), time.Minute)
	purgeInterval := intervalSetting(log, cfg.GetString("notifications.purge_interval"), time.Hour)

	// Establish the database connection.
	database, err := db.InitDatabase("postgres", cfg.GetString("db.uri"))
	if err != nil {
		log.Fatal(err)
	}
	store := db.NewStore(database)

	// Create the dispatch engine.
	engine := dispatch.NewEngine(store, store, store, log)

	// Create the messaging client used for outgoing deliveries.
	deliveryClient, err := messaging.NewClient(amqpSettings.URI, true)
	if err != nil {
		log.Fatal(err)
	}
	defer deliveryClient.Close()
	if err := deliveryClient.SetupPublishing(amqpSettings.ExchangeName); err != nil {
		log.Fatal(err)
	}

	// Start the delivery sweeper and expiry purge.
	deliverer := delivery.NewAMQPDeliverer(deliveryClient, store)
	go sweeper.New(store, deliverer, log).Run(tracerCtx, sweepInterval, purgeInterval)

	// Start consuming business events.
	handlerSet, err := handlerset.New(amqpSettings, handlers.InitMessageHandlers(engine), log)
	if err != nil {
		log.Fatal(err)
	}
	defer handlerSet.Close()
	handlerSet.Listen(queueName)

	// Serve the query facade.
	log.Infof("listening on port %d", listenPort)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", listenPort), api.New(store, log).Router()))
}
