package hogsvc

import (
	"errors"
	"testing"

	"github.com/neuroplastio/neio-hogpad/internal/hiderrors"
)

func TestValidateStaticAddressAcceptsTopTwoBitsSet(t *testing.T) {
	for _, mac := range []string{"C0:11:22:33:44:55", "DE:AD:BE:EF:00:01", "FF:FF:FF:FF:FF:FF"} {
		if err := validateStaticAddress(mac); err != nil {
			t.Errorf("validateStaticAddress(%q) = %v, want nil", mac, err)
		}
	}
}

func TestValidateStaticAddressRejectsNonStaticTopBits(t *testing.T) {
	for _, mac := range []string{"00:11:22:33:44:55", "7F:11:22:33:44:55", "80:11:22:33:44:55"} {
		if err := validateStaticAddress(mac); !errors.Is(err, hiderrors.ErrInvalidAddress) {
			t.Errorf("validateStaticAddress(%q) = %v, want ErrInvalidAddress", mac, err)
		}
	}
}

func TestValidateStaticAddressRejectsMalformedInput(t *testing.T) {
	for _, mac := range []string{"", "C0:11:22:33:44", "C0-11-22-33-44-55", "GG:11:22:33:44:55", "C0:11:22:33:44:555"} {
		if err := validateStaticAddress(mac); !errors.Is(err, hiderrors.ErrInvalidAddress) {
			t.Errorf("validateStaticAddress(%q) = %v, want ErrInvalidAddress", mac, err)
		}
	}
}
