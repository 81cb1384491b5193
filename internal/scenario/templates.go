package scenario

import (
	"bytes"
	"text/template"

	"github.com/banshee-data/scenario.report/internal/geometry"
)

var launchTemplate = template.Must(template.New("launchd").Parse(`<?xml version="1.0"?>
<launch>
    <copy file="{{.Name}}.net.xml" />
    <copy file="{{.Name}}.rou.xml" />
    <copy file="{{.Name}}.poly.xml" />
    <copy file="{{.Name}}.sumo.cfg" type="config" />
</launch>`))

var sumoConfigTemplate = template.Must(template.New("sumocfg").Parse(`<configuration>
    <input>
        <net-file value="{{.Name}}.net.xml"/>
        <route-files value="{{.Name}}.rou.xml"/>
        <additional-files value="{{.Name}}.poly.xml"/>
    </input>
    <time>
        <begin value="0"/>
        <end value="{{.Duration}}"/>
    </time>
    <output>
        <fcd-output value="{{.Name}}.fcd.xml"/>
        <summary-output value="{{.Name}}.summary.xml"/>
    </output>
</configuration>`))

var iniTemplate = template.Must(template.New("omnetpp").Parse(`[General]
cmdenv-express-mode = true
cmdenv-autoflush = true
cmdenv-status-frequency = 1s
**.cmdenv-log-level = info

image-path = ../../images

network = RSUExampleScenario

##########################################################
#            Simulation parameters                       #
##########################################################
debug-on-errors = true
print-undisposed = true

sim-time-limit = {{.Duration}}s

**.scalar-recording = true
**.vector-recording = true

*.playgroundSizeX = {{.PlaygroundX}}m
*.playgroundSizeY = {{.PlaygroundY}}m
*.playgroundSizeZ = 50m


##########################################################
# Annotation parameters                                  #
##########################################################
*.annotations.draw = true

##########################################################
# Obstacle parameters                                    #
##########################################################
*.obstacles.obstacles = xmldoc("config.xml", "//AnalogueModel[@type='SimpleObstacleShadowing']/obstacles")

##########################################################
#            TraCIScenarioManager parameters             #
##########################################################
*.manager.updateInterval = 1s
*.manager.host = "localhost"
*.manager.port = 9999
*.manager.autoShutdown = true
*.manager.launchConfig = xmldoc("{{.Name}}.launchd.xml")
*.manager.trafficLightModuleType = "org.car2x.veins.nodes.TrafficLight"

*.tls[*].mobility.x = 0
*.tls[*].mobility.y = 0
*.tls[*].mobility.z = 3

*.tls[*].applType = "org.car2x.veins.modules.application.traci.TraCIDemoTrafficLightApp"
*.tls[*].logicType ="org.car2x.veins.modules.world.traci.trafficLight.logics.TraCITrafficLightSimpleLogic"


##########################################################
#                       RSU SETTINGS                     #
#                                                        #
#                                                        #
##########################################################
*.rsu[0].mobility.x = {{.ReferenceX}}
*.rsu[0].mobility.y = {{.ReferenceY}}
*.rsu[0].mobility.z = 3

*.rsu[*].applType = "TraCIDemoRSU11p"
*.rsu[*].appl.headerLength = 80 bit
*.rsu[*].appl.sendBeacons = false
*.rsu[*].appl.dataOnSch = false
*.rsu[*].appl.beaconInterval = 1s
*.rsu[*].appl.beaconUserPriority = 7
*.rsu[*].appl.dataUserPriority = 5
*.rsu[*].nic.phy80211p.antennaOffsetZ = 0 m

##########################################################
#            11p specific parameters                     #
#                                                        #
#                    NIC-Settings                        #
##########################################################
*.connectionManager.sendDirect = true
*.connectionManager.maxInterfDist = 2600m
*.connectionManager.drawMaxIntfDist = false

*.**.nic.mac1609_4.useServiceChannel = false

*.**.nic.mac1609_4.txPower = 20mW
*.**.nic.mac1609_4.bitrate = 6Mbps
*.**.nic.phy80211p.minPowerLevel = -110dBm

*.**.nic.phy80211p.useNoiseFloor = true
*.**.nic.phy80211p.noiseFloor = -98dBm

*.**.nic.phy80211p.decider = xmldoc("config.xml")
*.**.nic.phy80211p.analogueModels = xmldoc("config.xml")
*.**.nic.phy80211p.usePropagationDelay = true

*.**.nic.phy80211p.antenna = xmldoc("antenna.xml", "/root/Antenna[@id='monopole']")
*.node[*].nic.phy80211p.antennaOffsetY = 0 m
*.node[*].nic.phy80211p.antennaOffsetZ = 1.895 m

##########################################################
#                      App Layer                         #
##########################################################
*.node[*].applType = "TraCIDemo11p"
*.node[*].appl.headerLength = 80 bit
*.node[*].appl.sendBeacons = false
*.node[*].appl.dataOnSch = false
*.node[*].appl.beaconInterval = 1s

##########################################################
#                      Mobility                          #
##########################################################
*.node[*].veinsmobility.x = 0
*.node[*].veinsmobility.y = 0
*.node[*].veinsmobility.z = 0
*.node[*].veinsmobility.setHostSpeed = false
*.node[*0].veinsmobility.accidentCount = 1
*.node[*0].veinsmobility.accidentStart = 73s
*.node[*0].veinsmobility.accidentDuration = 50s

[Config Default]

[Config WithBeaconing]
*.rsu[*].appl.sendBeacons = true
*.node[*].appl.sendBeacons = true

[Config WithChannelSwitching]
*.**.nic.mac1609_4.useServiceChannel = true
*.node[*].appl.dataOnSch = true
*.rsu[*].appl.dataOnSch = true

`))

// templateData is the value every config template renders against.
// Coordinates are pre-formatted so 1500 renders as "1500".
type templateData struct {
	Name        string
	Duration    int
	PlaygroundX string
	PlaygroundY string
	ReferenceX  string
	ReferenceY  string
}

func newTemplateData(cfg Config, g geometry.Result) templateData {
	return templateData{
		Name:        cfg.Name,
		Duration:    cfg.Duration,
		PlaygroundX: geometry.FormatFloat(g.PlaygroundWidth),
		PlaygroundY: geometry.FormatFloat(g.PlaygroundHeight),
		ReferenceX:  geometry.FormatFloat(g.ReferenceX),
		ReferenceY:  geometry.FormatFloat(g.ReferenceY),
	}
}

func render(t *template.Template, data templateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderLaunch returns the launch descriptor for a scenario.
func RenderLaunch(cfg Config) ([]byte, error) {
	return render(launchTemplate, templateData{Name: cfg.Name, Duration: cfg.Duration})
}

// RenderSumoConfig returns the simulator configuration for a scenario.
func RenderSumoConfig(cfg Config) ([]byte, error) {
	return render(sumoConfigTemplate, templateData{Name: cfg.Name, Duration: cfg.Duration})
}

// RenderIni returns the network-simulator configuration with the playground
// and RSU position taken from g.
func RenderIni(cfg Config, g geometry.Result) ([]byte, error) {
	return render(iniTemplate, newTemplateData(cfg, g))
}
