package validation

import (
	"context"

	"detector/internal/domain"
)

type DeviceRegistry = Registry[domain.Device]

// DeviceValidator checks devices against the device registry blacklist.
type DeviceValidator struct {
	checker *checker[domain.Device]
}

func NewDeviceValidator(registry DeviceRegistry, opts ...Option) (*DeviceValidator, error) {
	c, err := newChecker("device", registry, opts)
	if err != nil {
		return nil, err
	}
	return &DeviceValidator{checker: c}, nil
}

func (v *DeviceValidator) IsValid(ctx context.Context, mac string) bool {
	return v.checker.isValid(ctx, mac, domain.Device.Trusted)
}

func (v *DeviceValidator) AreValid(ctx context.Context, macs []string) map[string]bool {
	return v.checker.areValid(ctx, macs, domain.Device.Trusted)
}

func (v *DeviceValidator) AreValidAsync(ctx context.Context, macs []string) <-chan map[string]bool {
	return v.checker.areValidAsync(ctx, macs, domain.Device.Trusted)
}
