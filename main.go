package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/matt-g-everett/ledflow/api"
	"github.com/matt-g-everett/ledflow/clock"
	"github.com/matt-g-everett/ledflow/runloop"
	"github.com/matt-g-everett/ledflow/stream"
	"github.com/matt-g-everett/ledflow/timeline"
)

const publishTimeout = 2 * time.Second

type app struct {
	Config     stream.Config
	Client     mqtt.Client
	Loop       *runloop.Loop
	Show       *stream.Show
	Timeline   *timeline.Timeline
	Controller *stream.Controller
	Streamer   *stream.Streamer
	Api        *api.Api
}

func newApp(cfg stream.Config) (*app, error) {
	a := new(app)
	a.Config = cfg
	a.Loop = runloop.New(clock.System())

	show, err := stream.NewShow(cfg.Timeline, a.Loop.Clock())
	if err != nil {
		return nil, err
	}
	a.Show = show

	options := mqtt.NewClientOptions().
		AddBroker(cfg.Mqtt.URL).
		SetClientID("ledflow").
		SetUsername(cfg.Mqtt.Username).
		SetPassword(cfg.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)

	publisher := stream.NewMQTTPublisher(a.Client, 0, publishTimeout)
	topics := cfg.Mqtt.Topics
	player := stream.NewCuePlayer(a.Loop, publisher, topics.Cues, cfg.Timeline.Sounds)

	a.Timeline = show.Timeline(a.Loop, player)
	a.Controller = stream.NewController(a.Loop, publisher, topics.Status, a.Timeline)
	a.Streamer = stream.NewStreamer(publisher, topics.Stream, show.Stage, cfg.FrameRate)
	a.Api = api.NewApi(a.Loop, a.Controller, "client/dist")
	return a, nil
}

func (a *app) handleOnConnect(client mqtt.Client) {
	logrus.WithField("broker", a.Config.Mqtt.URL).Info("Connected")
	if err := a.Controller.Subscribe(client, a.Config.Mqtt.Topics.Control); err != nil {
		logrus.WithError(err).Error("control subscription failed")
	}
}

func (a *app) run(ctx context.Context) error {
	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer a.Client.Disconnect(250)

	go func() {
		if err := a.Api.Serve(ctx, a.Config.Listen); err != nil {
			logrus.WithError(err).Error("api stopped")
		}
	}()

	a.Loop.Post(func() {
		a.Streamer.Start(a.Loop)
		if a.Config.Timeline.Autoplay {
			a.Controller.Timeline().Play()
		}
	})

	err := a.Loop.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func main() {
	// mqtt.DEBUG = log.New(os.Stdout, "", 0)
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using the process environment")
	}

	cfg, err := stream.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	if err := stream.SetupLogging(cfg.Log); err != nil {
		logrus.WithError(err).Fatal("logging")
	}
	logrus.WithFields(logrus.Fields{
		"layers":   len(cfg.Timeline.Layers),
		"duration": cfg.Timeline.Duration,
	}).Info("config loaded")

	a, err := newApp(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("show")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		logrus.WithError(err).Fatal("run")
	}
}
