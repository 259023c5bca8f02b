// Package flash implements session-scoped flash messages. A Store binds to a
// caller-owned session map and keeps two bags under the "Phlash" key: "now",
// visible to the current request, and "later", queued for the next one.
//
// Every call to New stands for the start of a new logical request and rotates
// the bags: the previous "later" bag becomes "now" and a fresh "later" bag is
// installed. Data flashed for later therefore survives exactly one rotation.
//
//	data := map[string]any{}
//	f, _ := flash.New(data)
//	f.FlashLater("success", "Profile saved")
//
//	// next request, same session data
//	f, _ = flash.New(data)
//	f.Get("success") // "Profile saved"
package flash
