package config_test

import (
	"testing"

	"github.com/okian/pugil/internal/config"
	"github.com/okian/pugil/internal/domain/engine"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StorePath, convey.ShouldBeEmpty)
			convey.So(cfg.StoreTTLMinutes, convey.ShouldEqual, 30)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			convey.So(cfg.MaxSessions, convey.ShouldEqual, 64)
			convey.So(cfg.StreamReadLimitBytes, convey.ShouldEqual, 65_536)
			convey.So(cfg.Tuning, convey.ShouldResemble, engine.DefaultTuning())
		})
	})
}
