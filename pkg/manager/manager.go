package manager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vod-service/pkg/config"
	"vod-service/pkg/logger"
)

// Resource 外部资源（数据库、Redis、对象存储等），启动时打开，退出时关闭
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin 注册资源的插件
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

// Component 后台组件（消费者、Worker、定时任务）
type Component interface {
	Start() error
	Stop() error
	GetName() string
}

// ComponentPlugin 注册组件的插件
type ComponentPlugin interface {
	Name() string
	MustCreateComponent(deps *Dependencies) Component
}

// Controller HTTP 控制器
type Controller interface {
	RegisterRoutes(engine *gin.Engine)
}

// ControllerPlugin 注册控制器的插件
type ControllerPlugin interface {
	Name() string
	MustCreateController(deps *Dependencies) Controller
}

// Dependencies 依赖注入容器
type Dependencies struct {
	DB     *gorm.DB
	Config *config.Config
	// Roles 控制当前进程启用哪些角色，未设置时全部启用
	Roles *Roles
}

// Roles 进程角色，cmd 入口按需裁剪
type Roles struct {
	HTTP       bool
	Worker     bool
	Reconciler bool
	Consumer   bool
}

// AllRoles 启用所有角色
func AllRoles() *Roles {
	return &Roles{HTTP: true, Worker: true, Reconciler: true, Consumer: true}
}

type registry struct {
	mu          sync.Mutex
	resources   map[string]ResourcePlugin
	components  map[string]ComponentPlugin
	controllers map[string]ControllerPlugin

	opened  []Resource
	started []Component
	built   []Controller
}

var defaultRegistry = &registry{
	resources:   map[string]ResourcePlugin{},
	components:  map[string]ComponentPlugin{},
	controllers: map[string]ControllerPlugin{},
}

// RegisterResourcePlugin 注册资源插件，通常在 init 中调用
func RegisterResourcePlugin(p ResourcePlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, exists := defaultRegistry.resources[p.Name()]; exists {
		panic(fmt.Sprintf("resource plugin %s registered twice", p.Name()))
	}
	defaultRegistry.resources[p.Name()] = p
}

// RegisterComponentPlugin 注册组件插件
func RegisterComponentPlugin(p ComponentPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, exists := defaultRegistry.components[p.Name()]; exists {
		panic(fmt.Sprintf("component plugin %s registered twice", p.Name()))
	}
	defaultRegistry.components[p.Name()] = p
}

// RegisterControllerPlugin 注册控制器插件
func RegisterControllerPlugin(p ControllerPlugin) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	if _, exists := defaultRegistry.controllers[p.Name()]; exists {
		panic(fmt.Sprintf("controller plugin %s registered twice", p.Name()))
	}
	defaultRegistry.controllers[p.Name()] = p
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MustInitResources 按名称顺序打开所有资源，任何失败直接 panic
func MustInitResources() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, name := range sortedKeys(defaultRegistry.resources) {
		res := defaultRegistry.resources[name].MustCreateResource()
		if res == nil {
			continue
		}
		res.MustOpen()
		defaultRegistry.opened = append(defaultRegistry.opened, res)
		logger.Infof("Resource opened name=%s", name)
	}
}

// CloseResources 逆序关闭已打开的资源
func CloseResources() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.opened) - 1; i >= 0; i-- {
		defaultRegistry.opened[i].Close()
	}
	defaultRegistry.opened = nil
}

// MustInitComponents 创建并启动所有组件
func MustInitComponents(deps *Dependencies) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, name := range sortedKeys(defaultRegistry.components) {
		c := defaultRegistry.components[name].MustCreateComponent(deps)
		if c == nil {
			logger.Infof("Component skipped name=%s", name)
			continue
		}
		if err := c.Start(); err != nil {
			panic(fmt.Sprintf("start component %s: %v", name, err))
		}
		defaultRegistry.started = append(defaultRegistry.started, c)
		logger.Infof("Component started name=%s", c.GetName())
	}
}

// MustInitControllers 创建所有控制器
func MustInitControllers(deps *Dependencies) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, name := range sortedKeys(defaultRegistry.controllers) {
		ctrl := defaultRegistry.controllers[name].MustCreateController(deps)
		if ctrl != nil {
			defaultRegistry.built = append(defaultRegistry.built, ctrl)
		}
	}
}

// RegisterAllRoutes 把所有控制器的路由挂到 gin 引擎
func RegisterAllRoutes(engine *gin.Engine) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for _, ctrl := range defaultRegistry.built {
		ctrl.RegisterRoutes(engine)
	}
}

// Shutdown 逆序停止所有组件
func Shutdown() {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	for i := len(defaultRegistry.started) - 1; i >= 0; i-- {
		c := defaultRegistry.started[i]
		if err := c.Stop(); err != nil {
			logger.Warnf("Component stop failed name=%s error=%v", c.GetName(), err)
		}
	}
	defaultRegistry.started = nil
}
