package order

// lifecycleMethods are the framework callbacks invoked by the engine rather
// than by user code. Matching is exact and case-sensitive.
var lifecycleMethods = map[string]bool{
	"Awake":                true,
	"OnEnable":             true,
	"Start":                true,
	"FixedUpdate":          true,
	"Update":               true,
	"LateUpdate":           true,
	"OnGUI":                true,
	"OnDisable":            true,
	"OnDestroy":            true,
	"OnValidate":           true,
	"Reset":                true,
	"OnApplicationFocus":   true,
	"OnApplicationPause":   true,
	"OnApplicationQuit":    true,
	"OnBecameVisible":      true,
	"OnBecameInvisible":    true,
	"OnTriggerEnter":       true,
	"OnTriggerStay":        true,
	"OnTriggerExit":        true,
	"OnTriggerEnter2D":     true,
	"OnTriggerStay2D":      true,
	"OnTriggerExit2D":      true,
	"OnCollisionEnter":     true,
	"OnCollisionStay":      true,
	"OnCollisionExit":      true,
	"OnCollisionEnter2D":   true,
	"OnCollisionStay2D":    true,
	"OnCollisionExit2D":    true,
	"OnDrawGizmos":         true,
	"OnDrawGizmosSelected": true,
}

// IsLifecycleMethod reports whether name is a recognized framework callback.
func IsLifecycleMethod(name string) bool {
	return lifecycleMethods[name]
}
