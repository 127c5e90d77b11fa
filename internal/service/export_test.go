package service

// NewFactoryForTest builds a factory with injected constructors.
func NewFactoryForTest(launch BrowserLauncher, model ModelFactory) ComponentFactory {
	return &concreteFactory{launchBrowser: launch, newModel: model}
}
