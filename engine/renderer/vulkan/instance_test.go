package vulkan

import "testing"

func TestEnableValidationDowngradesWithoutLayers(t *testing.T) {
	if enableValidation(true, nil) {
		t.Fatal("validation must downgrade when no layer is available")
	}
	if !enableValidation(true, []string{"VK_LAYER_KHRONOS_validation"}) {
		t.Fatal("validation must stay enabled when the layer is present")
	}
	if enableValidation(false, []string{"VK_LAYER_KHRONOS_validation"}) {
		t.Fatal("an installed layer must not enable validation that was not requested")
	}
}
