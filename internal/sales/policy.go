package sales

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/retailpos-backend/internal/tender"
	"github.com/angelmondragon/retailpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/retailpos-backend/pkg/errors"
)

// settlement is how a channel leaves a new order.
type settlement struct {
	tender  tender.Breakdown
	payment enums.PaymentStatus
	pickup  enums.PickupStatus
}

// settle applies the channel rules to the offered tender.
//
//	pos:         tender required, paid, picked up on the spot
//	online:      card for the total, paid, awaiting pickup
//	reservation: no tender, unpaid, awaiting pickup
func settle(channel enums.SaleChannel, total decimal.Decimal, offered tender.Tender) (settlement, error) {
	switch channel {
	case enums.SaleChannelPOS:
		if offered == nil {
			return settlement{}, pkgerrors.New(pkgerrors.CodeValidation, "tender is required for a point-of-sale sale")
		}
		breakdown, err := tender.Compute(total, offered)
		if err != nil {
			return settlement{}, err
		}
		return settlement{tender: breakdown, payment: enums.PaymentStatusPaid, pickup: enums.PickupStatusPickedUp}, nil

	case enums.SaleChannelOnline:
		if offered == nil {
			offered = tender.Card{}
		}
		if offered.Mode() != enums.TenderModeCard {
			return settlement{}, pkgerrors.New(pkgerrors.CodeValidation, "online sales are paid by card")
		}
		breakdown, err := tender.Compute(total, offered)
		if err != nil {
			return settlement{}, err
		}
		return settlement{tender: breakdown, payment: enums.PaymentStatusPaid, pickup: enums.PickupStatusNotPickedUp}, nil

	case enums.SaleChannelReservation:
		if offered != nil {
			return settlement{}, pkgerrors.New(pkgerrors.CodeValidation, "reservations are paid at pickup")
		}
		return settlement{tender: tender.None(), payment: enums.PaymentStatusUnpaid, pickup: enums.PickupStatusNotPickedUp}, nil

	default:
		return settlement{}, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown sale channel %q", channel)
	}
}
