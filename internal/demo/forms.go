package demo

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/pkg/domain"
	"github.com/aretw0/relview/pkg/formflow"
	"github.com/mitchellh/mapstructure"
)

const (
	confirmedKey = "confirmed"
	pendingKey   = "pending"
)

// addressForm edits the shipping address of a customer. A valid submission
// is cached and handed to the confirmation step; when the confirmation
// comes back the cached submission is replayed and committed.
type addressForm struct {
	shop *Shop
}

func (f *addressForm) GetForm(step *formflow.Step) (*relview.Response, error) {
	id := step.Kwargs()["customer_id"]
	addrs, err := f.shop.Addresses(id)
	if err != nil {
		return nil, err
	}

	form := step.FormData()
	if form == nil {
		form = map[string]any{}
		if n := len(addrs); n > 0 {
			form = addrs[n-1].asMap()
		}
	}
	return render(step, form), nil
}

func render(step *formflow.Step, form map[string]any) *relview.Response {
	return relview.NewResponse(relview.ObjectBody(map[string]any{
		"customer_id": step.Kwargs()["customer_id"],
		"form":        form,
		"caller":      step.Caller(),
	}))
}

func (f *addressForm) PostForm(step *formflow.Step) (*relview.Response, error) {
	id := step.Kwargs()["customer_id"]
	if _, err := f.shop.Customer(id); err != nil {
		return nil, err
	}

	submitted := step.Request().Data()
	if step.Request().Method() == http.MethodGet {
		submitted = step.FormData()
	}

	addr, err := decodeAddress(submitted)
	if err != nil {
		return invalid(map[string]any{"form": err.Error()}), nil
	}
	if problems := addr.Problems(); len(problems) > 0 {
		return invalid(problems), nil
	}

	if _, answered := step.Packet()[confirmedKey]; answered {
		var ack struct {
			Confirmed bool `mapstructure:"confirmed"`
		}
		if err := step.DecodePacket(&ack); err != nil {
			return nil, fmt.Errorf("failed to decode confirmation: %w", err)
		}
		step.ClearFormData()
		if !ack.Confirmed {
			return render(step, addr.asMap()), nil
		}
		if err := f.shop.AddAddress(id, addr); err != nil {
			return nil, err
		}
		return step.SendBack(formflow.BackOptions{Data: map[string]any{"saved": true}})
	}

	if err := step.SetFormData(addr.asMap()); err != nil {
		return nil, err
	}
	packet := domain.Packet(addr.asMap())
	packet["customer_id"] = id
	return step.SendNext("confirm", formflow.NextOptions{Packet: packet})
}

// confirmForm asks the user to confirm the packet handed over by the previous step.
type confirmForm struct{}

func (f *confirmForm) GetForm(step *formflow.Step) (*relview.Response, error) {
	if p := step.Packet(); len(p) > 0 {
		if err := step.SetViewCache(pendingKey, map[string]any(p)); err != nil {
			return nil, err
		}
	}
	pending, ok := step.ViewCache(pendingKey).(map[string]any)
	if !ok {
		return step.SendBack(formflow.BackOptions{})
	}
	return relview.NewResponse(relview.ObjectBody(map[string]any{
		"address": pending,
		"caller":  step.Caller(),
	})), nil
}

func (f *confirmForm) PostForm(step *formflow.Step) (*relview.Response, error) {
	if step.PopViewCache(pendingKey) == nil {
		return step.SendBack(formflow.BackOptions{})
	}
	ok, _ := strconv.ParseBool(fmt.Sprint(step.Request().Data()[confirmedKey]))
	return step.SendBack(formflow.BackOptions{Packet: domain.Packet{confirmedKey: ok}})
}

func decodeAddress(data map[string]any) (Address, error) {
	var addr Address
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &addr,
	})
	if err != nil {
		return Address{}, err
	}
	if err := dec.Decode(data); err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	return addr, nil
}

func invalid(problems map[string]any) *relview.Response {
	resp := relview.NewResponse(relview.ObjectBody(map[string]any{"errors": problems}))
	resp.Status = http.StatusBadRequest
	return resp
}
