package softap

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf16"
)

var (
	// errNoChannel means no usable channel exists for the requested band.
	errNoChannel = errors.New("no channel available for requested band")
)

// RandomizeBSSIDIfUnset fills in a locally-administered unicast MAC when the
// configuration does not pin a BSSID. The returned flag records that the
// BSSID is synthetic, so that a later update clearing the BSSID compares
// equal to the running config.
func RandomizeBSSIDIfUnset(cfg *Configuration) (*Configuration, bool, error) {
	if cfg == nil || cfg.BSSID != "" {
		return cfg, false, nil
	}
	mac, err := randomLocalMAC()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate randomized BSSID: %w", err)
	}
	out := cfg.Clone()
	out.BSSID = mac
	return out, true, nil
}

func randomLocalMAC() (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	b[0] |= 0x02 // locally administered
	b[0] &^= 0x01 // unicast
	return NormalizeMAC(fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		b[0], b[1], b[2], b[3], b[4], b[5])), nil
}

// splitDualBand derives the two child configurations of a dual-band AP:
// identical to the parent except the band is pinned per radio.
func splitDualBand(cfg *Configuration) (cfg2GHz, cfg5GHz *Configuration) {
	cfg2GHz = cfg.Clone()
	cfg2GHz.Band = Band2GHz
	cfg5GHz = cfg.Clone()
	cfg5GHz.Band = Band5GHz
	return cfg2GHz, cfg5GHz
}

// oweTransitionPair derives the OWE/Open child pair of an OWE transition AP.
// The OWE child hides behind a derived SSID; each child records the sibling
// interface as its transition peer.
func oweTransitionPair(cfg *Configuration, oweIface, openIface string) (oweCfg, openCfg *Configuration) {
	oweCfg = cfg.Clone()
	// A 32-bit hash renders to at most 11 characters, so the derived SSID
	// always fits in 32 octets.
	oweCfg.SSID = "OWE_" + strconv.FormatInt(int64(stableHash32(cfg.SSID)), 10)
	oweCfg.HiddenSSID = true
	oweCfg.OweTransIfaceName = openIface

	openCfg = cfg.Clone()
	openCfg.Security = SecurityOpen
	openCfg.Passphrase = ""
	openCfg.OweTransIfaceName = oweIface
	return oweCfg, openCfg
}

// stableHash32 hashes a string over its UTF-16 code units with the classic
// h = 31*h + c recurrence, so the derived OWE SSID is stable across hosts.
func stableHash32(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

// updateChannelConfig resolves the operating channel. With ACS offloaded the
// channel stays 0 and firmware picks; otherwise a supported channel for the
// requested band is chosen from the capability.
func updateChannelConfig(cfg *Configuration, cap Capability, acsEnabled bool) error {
	if cfg.Channel != 0 {
		return nil
	}
	if acsEnabled {
		return nil
	}
	band := cfg.Band
	if band == BandAny {
		band = Band2GHz
	}
	channels := cap.SupportedChannels[band]
	if len(channels) == 0 {
		return fmt.Errorf("band %s: %w", band, errNoChannel)
	}
	cfg.Channel = channels[0]
	return nil
}
