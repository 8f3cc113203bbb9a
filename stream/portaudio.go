package stream

import (
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Device describes one output device for enumeration.
type Device struct {
	Index             int
	Name              string
	HostAPI           string
	MaxOutputChannels int
	DefaultSampleRate float64
}

// ListDevices enumerates host output devices.
func ListDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "portaudio init")
	}
	defer portaudio.Terminate()
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate devices")
	}
	var out []Device
	for i, d := range infos {
		if d.MaxOutputChannels == 0 {
			continue
		}
		out = append(out, Device{
			Index:             i,
			Name:              d.Name,
			HostAPI:           d.HostApi.Name,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
		})
	}
	return out, nil
}

// DeviceSink plays the engine's output on a sound device as mono float32.
// The composite needs every output sample, so high-latency parameters trade
// callback deadline pressure for buffer depth.
type DeviceSink struct {
	stream *portaudio.Stream
}

// OpenDevice opens the named output device, or the host default when name is
// empty. Matching is by case-insensitive substring.
func OpenDevice(e *Engine, name string, sampleRate int) (*DeviceSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "portaudio init")
	}
	info, err := findOutput(name)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	p := portaudio.HighLatencyParameters(nil, info)
	p.Output.Channels = 1
	p.SampleRate = float64(sampleRate)
	s, err := portaudio.OpenStream(p, func(out []float32) { e.Pull(out) })
	if err != nil {
		portaudio.Terminate()
		return nil, errors.Wrapf(err, "open %q at %d Hz", info.Name, sampleRate)
	}
	return &DeviceSink{stream: s}, nil
}

func findOutput(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		info, err := portaudio.DefaultOutputDevice()
		return info, errors.Wrap(err, "default output device")
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate devices")
	}
	for _, d := range infos {
		if d.MaxOutputChannels > 0 &&
			strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return d, nil
		}
	}
	return nil, errors.Errorf("no output device matching %q", name)
}

func (d *DeviceSink) Start() error {
	return d.stream.Start()
}

func (d *DeviceSink) Close() error {
	d.stream.Stop()
	err := d.stream.Close()
	portaudio.Terminate()
	return err
}
