package zkauth

import (
	"github.com/sirupsen/logrus"

	"github.com/sealbound/zkauth/store"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.StandardLogger()
	store.Logger = Logger
}
