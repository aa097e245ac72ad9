// Package fingerprint derives deterministic identifiers from device
// descriptors: the descriptor fingerprint, the combined ID and the iOS
// device ID. Every hash is lowercase hex SHA-256 over the parts joined
// with "|".
package fingerprint

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const separator = "|"

// Hash hashes parts in order. Empty parts keep their position.
func Hash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, separator)))
	return hex.EncodeToString(sum[:])
}

// AndroidInputs are the build and display descriptors of an Android device.
type AndroidInputs struct {
	Board        string
	Brand        string
	Device       string
	Hardware     string
	Manufacturer string
	Model        string
	Product      string
	OSRelease    string
	SDK          int
	ScreenWidth  int
	ScreenHeight int
	DensityDPI   int
	ABIs         []string
}

func (in AndroidInputs) Parts() []string {
	return []string{
		in.Board,
		in.Brand,
		in.Device,
		in.Hardware,
		in.Manufacturer,
		in.Model,
		in.Product,
		in.OSRelease,
		strconv.Itoa(in.SDK),
		strconv.Itoa(in.ScreenWidth),
		strconv.Itoa(in.ScreenHeight),
		strconv.Itoa(in.DensityDPI),
		strings.Join(in.ABIs, ","),
	}
}

func Android(in AndroidInputs) string {
	return Hash(in.Parts()...)
}

// IOSInputs are the model, OS and display descriptors of an iOS device.
type IOSInputs struct {
	Machine      string
	OSVersion    string
	ScreenWidth  int
	ScreenHeight int
	ScreenScale  float64
	Timezone     string
	Language     string
}

func (in IOSInputs) Parts() []string {
	return []string{
		in.Machine,
		in.OSVersion,
		fmt.Sprintf("%dx%d", in.ScreenWidth, in.ScreenHeight),
		strconv.FormatFloat(in.ScreenScale, 'f', -1, 64),
		in.Timezone,
		in.Language,
	}
}

func IOS(in IOSInputs) string {
	return Hash(in.Parts()...)
}

// Combined hashes the non-empty values in the order given. With nothing to
// hash it returns a random UUID, which is not reproducible.
func Combined(values ...string) string {
	present := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return uuid.NewString()
	}
	return Hash(present...)
}

// DeriveDeviceID builds the iOS device ID from the vendor ID, the
// fingerprint, an authorized advertising ID and the device model. When all
// of them are empty a time-ordered random seed is hashed instead, so the
// result is never empty.
func DeriveDeviceID(vendorID, fp, advertisingID, model string) string {
	present := make([]string, 0, 4)
	for _, v := range []string{vendorID, fp, advertisingID, model} {
		if v != "" {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		seed := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
		return Hash(seed.String())
	}
	return Hash(present...)
}
