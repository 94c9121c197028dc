package config_test

import (
	"os"
	"sort"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chorus/pkg/config"
	"github.com/papercomputeco/chorus/pkg/orchdir"
)

var _ = Describe("Configer", func() {
	var (
		ws      string
		configr *config.Configer
	)

	BeforeEach(func() {
		ws = GinkgoT().TempDir()
		var err error
		configr, err = config.NewConfiger(ws)
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns defaults when no config file exists", func() {
		cfg, err := configr.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Listen).To(Equal(":8090"))
		Expect(cfg.Snapshots.TTL()).To(Equal(5 * time.Minute))
		Expect(cfg.Snapshots.SweepInterval()).To(Equal(time.Minute))
		Expect(cfg.Sessions.TTL()).To(Equal(30 * time.Minute))
		Expect(cfg.Sessions.SweepInterval()).To(Equal(5 * time.Minute))
		Expect(cfg.Revision.CacheTTL()).To(Equal(5 * time.Second))
	})

	It("round-trips through save and load", func() {
		cfg := config.NewDefaultConfig()
		cfg.Server.Listen = ":9999"
		cfg.Snapshots.TTLSeconds = 120

		Expect(configr.SaveConfig(cfg)).To(Succeed())

		loaded, err := configr.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Server.Listen).To(Equal(":9999"))
		Expect(loaded.Snapshots.TTLSeconds).To(Equal(uint(120)))
	})

	It("fills unset fields from defaults on load", func() {
		Expect(os.WriteFile(configr.GetTarget(), []byte("[server]\nlisten = \":7777\"\n"), 0o600)).To(Succeed())

		cfg, err := configr.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Server.Listen).To(Equal(":7777"))
		Expect(cfg.Snapshots.TTLSeconds).To(Equal(uint(300)))
	})

	It("sets and gets values by dotted key", func() {
		Expect(configr.SetConfigValue("server.listen", ":6060")).To(Succeed())

		got, err := configr.GetConfigValue("server.listen")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(":6060"))
	})

	It("rejects unknown keys", func() {
		Expect(configr.SetConfigValue("nope.nothing", "x")).NotTo(Succeed())
		_, err := configr.GetConfigValue("nope.nothing")
		Expect(err).To(HaveOccurred())
	})

	It("rejects non-numeric values for numeric keys", func() {
		Expect(configr.SetConfigValue("snapshots.ttl_seconds", "soon")).NotTo(Succeed())
	})

	It("writes the config inside the orchestration directory", func() {
		Expect(configr.GetTarget()).To(Equal(orchdir.ConfigPath(ws)))
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("lists every dotted key in sorted order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(ContainElements("server.listen", "workspace.root", "snapshots.ttl_seconds"))
		Expect(sort.StringsAreSorted(keys)).To(BeTrue())
	})

	It("validates membership", func() {
		Expect(config.IsValidConfigKey("server.listen")).To(BeTrue())
		Expect(config.IsValidConfigKey("server.nope")).To(BeFalse())
	})
})

var _ = Describe("InitViper", func() {
	It("applies defaults without a config file", func() {
		ws := GinkgoT().TempDir()
		v, err := config.InitViper(ws)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("server.listen")).To(Equal(":8090"))
		Expect(v.GetUint("snapshots.ttl_seconds")).To(Equal(uint(300)))
	})

	It("reads values from the workspace config file", func() {
		ws := GinkgoT().TempDir()
		configr, err := config.NewConfiger(ws)
		Expect(err).NotTo(HaveOccurred())
		cfg := config.NewDefaultConfig()
		cfg.Server.Listen = ":7001"
		Expect(configr.SaveConfig(cfg)).To(Succeed())

		v, err := config.InitViper(ws)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("server.listen")).To(Equal(":7001"))
	})

	It("lets environment variables override file values", func() {
		ws := GinkgoT().TempDir()
		GinkgoT().Setenv("CHORUS_SERVER_LISTEN", ":7002")

		v, err := config.InitViper(ws)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("server.listen")).To(Equal(":7002"))
	})
})
