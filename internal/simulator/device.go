package simulator

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"thermometer_alarm/internal/device"
	"thermometer_alarm/internal/logger"
)

const (
	writeWait   = 5 * time.Second
	probeWait   = 5 * time.Second
	maxMsgSize  = 1 << 12
	defaultTick = time.Second
)

// Frames use the same shape the dashboard session parses.
var (
	deniedMsg = device.Message{Error: device.DeniedError}
	okMsg     = device.Message{Status: device.StatusOK}
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one socket to the simulated sensor.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	// confirmed is set once the client sent a non-probe command.
	confirmed bool
}

func (c *client) write(m device.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(m)
}

// Indicators is the firmware-side state driven by dashboard commands.
type Indicators struct {
	Owner     bool `json:"owner"`
	Recording bool `json:"recording"`
	Alert     bool `json:"alert"`
}

// Device emulates the sensor firmware: one client at a time, probe replies,
// and a temperature frame to the admitted client every tick.
type Device struct {
	thermal *Thermal
	log     *logger.Logger

	mu         sync.Mutex
	owner      *client
	indicators Indicators
}

func NewDevice(thermal *Thermal, log *logger.Logger) *Device {
	if log == nil {
		log = logger.Nop()
	}
	return &Device{thermal: thermal, log: log}
}

// Routes registers the device socket and the control endpoints.
func (d *Device) Routes(r gin.IRoutes) {
	r.GET("/ws", d.serveWS)
	r.GET("/state", d.getState)
	r.PUT("/target", d.setTarget)
	r.PUT("/temperature", d.jump)
}

// Run emits a reading every tick until ctx is cancelled.
func (d *Device) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = defaultTick
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			d.Emit(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Emit advances the model by elapsed seconds and sends the reading to the
// admitted client, if any.
func (d *Device) Emit(elapsed float64) {
	v := d.thermal.Step(elapsed)
	d.mu.Lock()
	c := d.owner
	if c != nil && !c.confirmed {
		c = nil
	}
	d.mu.Unlock()
	if c == nil {
		return
	}
	if err := c.write(device.Message{Temperature: &v}); err != nil {
		d.log.Debugw("sim_write_failed", "err", err)
		_ = c.conn.Close()
	}
}

func (d *Device) Indicators() Indicators {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.indicators
}

func (d *Device) claim(c *client) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner != nil {
		return false
	}
	d.owner = c
	return true
}

func (d *Device) release(c *client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.owner == c {
		d.owner = nil
		d.indicators = Indicators{}
	}
}

func (d *Device) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.log.Errorw("sim_ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()
	conn.SetReadLimit(maxMsgSize)
	cl := &client{conn: conn}

	if !d.claim(cl) {
		d.refuse(cl)
		return
	}
	defer d.release(cl)
	d.log.Infow("sim_client_connected", "remote", c.Request.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			d.log.Infow("sim_client_closed", "remote", c.Request.RemoteAddr, "err", err)
			return
		}
		if d.handleCommand(cl, string(data)) {
			return
		}
	}
}

// refuse answers a client while the slot is taken: the denial right away,
// and again if it probes.
func (d *Device) refuse(cl *client) {
	d.log.Infow("sim_client_refused")
	if err := cl.write(deniedMsg); err != nil {
		return
	}
	_ = cl.conn.SetReadDeadline(time.Now().Add(probeWait))
	_, data, err := cl.conn.ReadMessage()
	if err != nil {
		return
	}
	if string(data) == device.CmdProbe {
		_ = cl.write(deniedMsg)
	}
}

// handleCommand applies one inbound command; true ends the connection.
func (d *Device) handleCommand(cl *client, cmd string) bool {
	d.mu.Lock()
	if cmd == device.CmdProbe && !cl.confirmed {
		// a probe is not a session: free the slot before answering
		if d.owner == cl {
			d.owner = nil
		}
		d.mu.Unlock()
		_ = cl.write(okMsg)
		return true
	}
	cl.confirmed = true
	switch cmd {
	case device.CmdWebConnected:
		d.indicators.Owner = true
	case device.CmdStartRecord:
		d.indicators.Recording = true
	case device.CmdEndRecord:
		d.indicators.Recording = false
	case device.CmdAlertOn:
		d.indicators.Alert = true
	case device.CmdAlertOff:
		d.indicators.Alert = false
	}
	d.mu.Unlock()

	switch cmd {
	case device.CmdProbe:
		_ = cl.write(okMsg)
	case device.CmdWebConnected, device.CmdStartRecord, device.CmdEndRecord, device.CmdAlertOn, device.CmdAlertOff:
		d.log.Infow("sim_command", "cmd", cmd)
	default:
		d.log.Warnw("sim_unknown_command", "cmd", cmd)
	}
	return false
}

type targetRequest struct {
	TargetC *float64 `json:"target_c" binding:"required"`
}

type temperatureRequest struct {
	TemperatureC *float64 `json:"temperature_c" binding:"required"`
}

func (d *Device) getState(c *gin.Context) {
	current, target := d.thermal.State()
	c.JSON(http.StatusOK, gin.H{
		"temperature_c": current,
		"target_c":      target,
		"indicators":    d.Indicators(),
	})
}

func (d *Device) setTarget(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target := d.thermal.SetTarget(*req.TargetC)
	d.log.Infow("sim_target_set", "target_c", target)
	c.JSON(http.StatusOK, gin.H{"target_c": target})
}

func (d *Device) jump(c *gin.Context) {
	var req temperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d.thermal.Jump(*req.TemperatureC)
	current, _ := d.thermal.State()
	c.JSON(http.StatusOK, gin.H{"temperature_c": current})
}
