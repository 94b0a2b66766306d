package main

import (
	"context"
	"log"
	"os"

	echoapi "github.com/trezcool/mahudhurio/apps/api/echo"
	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/student"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/mongodb"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB & repos
	client, err := mongodb.Open(conf)
	errAndDie(err)
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Fatal(err)
		}
	}()

	// set up services
	stdSvc := student.NewService(mongodb.NewStudentRepository(client, conf))
	attSvc := attendance.NewService(mongodb.NewAttendanceRepository(client, conf), stdSvc, conf.Timezone)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:         conf.Address(),
			AllowedOrigins:  conf.Server.AllowedOrigins,
			Debug:           conf.Debug,
			TestMode:        conf.TestMode,
			ShutdownTimeout: conf.Server.ShutdownTimeout,
			Timezone:        conf.Timezone,
			Logger:          logger,
			StudentSvc:      stdSvc,
			AttendanceSvc:   attSvc,
		},
	)
	logger.Info("starting server on " + conf.Address())
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
