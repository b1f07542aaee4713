package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yonagi/retroboard/gateway"
)

func TestFormValidationCatchesMissingFields(t *testing.T) {
	f := newForm(true, "", "")
	assert.False(t, f.validate())
	assert.Equal(t, "room id is required", f.fieldErrs[fieldRoom])
	assert.Equal(t, "name is required", f.fieldErrs[fieldName])
	assert.NotEmpty(t, f.fieldErrs[fieldPassword])
}

func TestFormValidationShortPassword(t *testing.T) {
	f := newForm(true, "r1", "alice")
	f.inputs[fieldPassword].SetValue("abc")
	assert.False(t, f.validate())
	assert.NotEmpty(t, f.fieldErrs[fieldPassword])

	f.inputs[fieldPassword].SetValue("abcd")
	assert.True(t, f.validate())
	for _, e := range f.fieldErrs {
		assert.Empty(t, e)
	}
}

func TestFormFailMapsKindsToFields(t *testing.T) {
	f := newForm(true, "r1", "alice")
	f.inputs[fieldPassword].SetValue("hunter22")
	f.validate()

	f.fail(&gateway.Error{Kind: gateway.KindRoomNotFound, Message: "Room not found"})
	assert.Equal(t, "room not found", f.fieldErrs[fieldRoom])
	assert.Empty(t, f.banner)

	f.fail(&gateway.Error{Kind: gateway.KindBadPassword, Message: "Invalid password"})
	assert.Equal(t, "invalid password", f.fieldErrs[fieldPassword])

	f.fail(errors.New("connection reset"))
	assert.Equal(t, "connection reset", f.banner)
	assert.False(t, f.submitting, "a failure re-enables the form")
}
