// Package statusapi exposes a read-mostly gin HTTP view over the USB
// core's registry and host diagnostics, for operators and the muxmonitor
// dashboard. It never drives the core from request goroutines; discover
// requests are posted through a channel the event pump drains, honoring
// the core's single-writer rule.
package statusapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"applemuxd/internal/diag"
	"applemuxd/internal/usbcore"
)

// DeviceView is the JSON-facing projection of a usbcore.DeviceSnapshot.
type DeviceView struct {
	Bus       uint8  `json:"bus"`
	Address   uint8  `json:"address"`
	Location  uint32 `json:"location"`
	ProductID uint16 `json:"product_id"`
	Serial    string `json:"serial"`
	SpeedBps  uint64 `json:"speed_bps"`
	Alive     bool   `json:"alive"`
}

func toView(snap usbcore.DeviceSnapshot) DeviceView {
	return DeviceView{
		Bus:       snap.Bus,
		Address:   snap.Address,
		Location:  snap.Location,
		ProductID: snap.ProductID,
		Serial:    snap.Serial,
		SpeedBps:  snap.SpeedBps,
		Alive:     snap.Alive,
	}
}

// Server is the status API's handler set. It holds no goroutine of its
// own; callers wire it into an *http.Server the same way the daemon wires
// any other gin router.
type Server struct {
	core       *usbcore.Core
	diag       *diag.Collector
	discoverCh chan<- struct{}
}

// New builds a Server. discoverCh, if non-nil, is written to (without
// blocking) when POST /discover is called; the daemon's event pump reads
// it and calls core.Discover() itself, since only that goroutine may
// touch the core's registry.
func New(core *usbcore.Core, collector *diag.Collector, discoverCh chan<- struct{}) *Server {
	return &Server{core: core, diag: collector, discoverCh: discoverCh}
}

// Router builds the gin engine exposing this server's routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/devices", s.handleListDevices)
		api.GET("/devices/:bus/:addr", s.handleGetDevice)
		api.POST("/discover", s.handleDiscover)
		api.GET("/diag", s.handleDiag)
		api.GET("/health", s.handleHealth)
	}
	return router
}

func (s *Server) handleListDevices(c *gin.Context) {
	snaps := s.core.Devices()
	views := make([]DeviceView, 0, len(snaps))
	for _, snap := range snaps {
		views = append(views, toView(snap))
	}
	c.JSON(http.StatusOK, gin.H{"devices": views})
}

func (s *Server) handleGetDevice(c *gin.Context) {
	bus, addr, ok := parseBusAddr(c.Param("bus"), c.Param("addr"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bus/address"})
		return
	}

	snap, found := s.core.Lookup(bus, addr)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusOK, toView(snap))
}

func (s *Server) handleDiscover(c *gin.Context) {
	if s.discoverCh == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "discovery channel not wired"})
		return
	}
	select {
	case s.discoverCh <- struct{}{}:
		c.JSON(http.StatusAccepted, gin.H{"message": "discovery requested"})
	default:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "a discovery request is already pending"})
	}
}

func (s *Server) handleDiag(c *gin.Context) {
	if s.diag == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "diagnostics not wired"})
		return
	}
	c.JSON(http.StatusOK, s.diag.Collect())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "devices": len(s.core.Devices())})
}

func parseBusAddr(busStr, addrStr string) (bus, addr uint8, ok bool) {
	b, ok1 := parseUint8(busStr)
	a, ok2 := parseUint8(addrStr)
	return b, a, ok1 && ok2
}

func parseUint8(s string) (uint8, bool) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}
