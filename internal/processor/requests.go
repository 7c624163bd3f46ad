package processor

import (
	"encoding/json"

	"ondc-seller/internal/beckn"
)

// Inbound payload shapes. Only the parts the processors act on are typed;
// everything else stays raw and is echoed or snapshotted verbatim.

type searchPayload struct {
	Message struct {
		Intent struct {
			Item struct {
				Descriptor struct {
					Name string `json:"name"`
				} `json:"descriptor"`
			} `json:"item"`
			Category struct {
				ID string `json:"id"`
			} `json:"category"`
		} `json:"intent"`
	} `json:"message"`
}

func (p *searchPayload) query() string {
	if name := p.Message.Intent.Item.Descriptor.Name; name != "" {
		return name
	}
	return p.Message.Intent.Category.ID
}

type orderPayload struct {
	Message struct {
		Order *beckn.Order `json:"order"`
	} `json:"message"`
}

type statusPayload struct {
	Message struct {
		OrderID string `json:"order_id"`
	} `json:"message"`
}

type cancelPayload struct {
	Message struct {
		OrderID              string `json:"order_id"`
		CancellationReasonID string `json:"cancellation_reason_id"`
	} `json:"message"`
}

type updatePayload struct {
	Message struct {
		UpdateTarget string       `json:"update_target"`
		Order        *beckn.Order `json:"order"`
	} `json:"message"`
}

// itemRef is the minimal view of one cart line inside a raw items array.
type itemRef struct {
	ID       string `json:"id"`
	Quantity struct {
		Count int `json:"count"`
	} `json:"quantity"`
}

func parseItemRefs(raw json.RawMessage) []itemRef {
	if len(raw) == 0 {
		return nil
	}
	var refs []itemRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil
	}
	for i := range refs {
		if refs[i].Quantity.Count <= 0 {
			refs[i].Quantity.Count = 1
		}
	}
	return refs
}

// confirmFulfillment is the slice of the fulfillment snapshot needed to
// build the normalized delivery record.
type confirmFulfillment struct {
	Type string `json:"type"`
	End  struct {
		Location struct {
			GPS     string          `json:"gps"`
			Address json.RawMessage `json:"address"`
		} `json:"location"`
	} `json:"end"`
}
